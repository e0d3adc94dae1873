package persistence

import (
	"time"

	"github.com/walfie-raid/petronel/internal/model"
)

// bossDTO is the on-disk JSON shape for a Boss, per §6: camelCase
// field names, with level/imageHash/en/ja omitted entirely when
// absent rather than serialized as zero values or null.
type bossDTO struct {
	En         string `json:"en,omitempty"`
	Ja         string `json:"ja,omitempty"`
	ImageEn    string `json:"imageEn,omitempty"`
	ImageJa    string `json:"imageJa,omitempty"`
	Level      *int16 `json:"level,omitempty"`
	LastSeenAt int64  `json:"lastSeenAt"`
	ImageHash  *int64 `json:"imageHash,omitempty"`
}

func toDTO(b model.Boss) bossDTO {
	dto := bossDTO{
		En:         b.Name.En.String(),
		Ja:         b.Name.Ja.String(),
		ImageEn:    b.Image.En.String(),
		ImageJa:    b.Image.Ja.String(),
		LastSeenAt: b.LastSeenAt.Millis(),
	}
	if b.HasLevel {
		level := b.Level
		dto.Level = &level
	}
	if b.ImageHash.Valid {
		hash := int64(b.ImageHash.Hash)
		dto.ImageHash = &hash
	}
	return dto
}

func fromDTO(dto bossDTO) model.Boss {
	boss := model.Boss{
		Name:       model.LangString{En: model.Intern(dto.En), Ja: model.Intern(dto.Ja)},
		Image:      model.LangString{En: model.Intern(dto.ImageEn), Ja: model.Intern(dto.ImageJa)},
		LastSeenAt: model.NewAtomicDateTime(time.UnixMilli(dto.LastSeenAt).UTC()),
	}
	if dto.Level != nil {
		boss.Level = *dto.Level
		boss.HasLevel = true
	}
	if dto.ImageHash != nil {
		boss.ImageHash = model.NewImageHash(model.ImageHash(*dto.ImageHash))
	}
	return boss
}
