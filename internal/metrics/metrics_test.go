package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestIncTweetIncrementsCounter(t *testing.T) {
	registry := prometheus.NewRegistry()
	factory := NewFactory(registry)

	factory.IncTweet("Lv60 オオゾラッコ", "Lvl 60 Ozorotter", "ja")
	factory.IncTweet("Lv60 オオゾラッコ", "Lvl 60 Ozorotter", "ja")

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	metric := findMetric(t, families, "petronel_tweets_total")
	if got := metric.GetCounter().GetValue(); got != 2 {
		t.Fatalf("tweets_total = %v, want 2", got)
	}
}

func TestSetAndDeleteSubscriptions(t *testing.T) {
	registry := prometheus.NewRegistry()
	factory := NewFactory(registry)

	factory.SetSubscriptions("boss-ja", "boss-en", 3)
	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	metric := findMetric(t, families, "petronel_subscriptions")
	if got := metric.GetGauge().GetValue(); got != 3 {
		t.Fatalf("subscriptions = %v, want 3", got)
	}

	factory.DeleteSubscriptions("boss-ja", "boss-en")
	families, err = registry.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, fam := range families {
		if fam.GetName() == "petronel_subscriptions" && len(fam.GetMetric()) != 0 {
			t.Fatalf("expected no subscriptions metrics after delete, got %d", len(fam.GetMetric()))
		}
	}
}

func TestWebsocketConnectionsGauge(t *testing.T) {
	registry := prometheus.NewRegistry()
	factory := NewFactory(registry)

	factory.IncWebsocketConnections()
	factory.IncWebsocketConnections()
	factory.DecWebsocketConnections()

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	metric := findMetric(t, families, "petronel_websocket_connections")
	if got := metric.GetGauge().GetValue(); got != 1 {
		t.Fatalf("websocket_connections = %v, want 1", got)
	}
}

func findMetric(t *testing.T, families []*dto.MetricFamily, name string) *dto.Metric {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		if len(fam.GetMetric()) == 0 {
			t.Fatalf("metric family %s has no samples", name)
		}
		return fam.GetMetric()[0]
	}
	t.Fatalf("metric family %s not found among %d families", name, len(families))
	return nil
}

func TestMetricNamesUsePrefix(t *testing.T) {
	registry := prometheus.NewRegistry()
	NewFactory(registry)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, fam := range families {
		if !strings.HasPrefix(fam.GetName(), "petronel_") {
			t.Fatalf("metric %s missing petronel_ prefix", fam.GetName())
		}
	}
}
