package observe

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestInitProvider_ServesMetrics(t *testing.T) {
	origMP := otel.GetMeterProvider()
	origTP := otel.GetTracerProvider()
	t.Cleanup(func() {
		otel.SetMeterProvider(origMP)
		otel.SetTracerProvider(origTP)
	})

	tel, err := InitProvider(context.Background(), ProviderConfig{ServiceVersion: "test"})
	if err != nil {
		t.Fatalf("InitProvider: %v", err)
	}
	t.Cleanup(func() { _ = tel.Shutdown(context.Background()) })

	m, err := NewMetrics(otel.GetMeterProvider())
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	m.RecordTrigger(context.Background(), "accepted")

	rec := httptest.NewRecorder()
	tel.MetricsHandler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	if !strings.Contains(string(body), "lookout_triggers") {
		t.Errorf("metrics output missing lookout_triggers:\n%s", body)
	}
	if !strings.Contains(string(body), "go_goroutines") {
		t.Error("metrics output missing Go runtime collector")
	}
}

func TestInitProvider_WritesSpans(t *testing.T) {
	origMP := otel.GetMeterProvider()
	origTP := otel.GetTracerProvider()
	t.Cleanup(func() {
		otel.SetMeterProvider(origMP)
		otel.SetTracerProvider(origTP)
	})

	var buf bytes.Buffer
	tel, err := InitProvider(context.Background(), ProviderConfig{TraceWriter: &buf})
	if err != nil {
		t.Fatalf("InitProvider: %v", err)
	}

	_, span := otel.Tracer("test").Start(context.Background(), "session")
	span.End()

	// Shutdown flushes the batcher.
	if err := tel.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !strings.Contains(buf.String(), `"Name":"session"`) {
		t.Errorf("trace output missing session span:\n%s", buf.String())
	}
}

func TestInitProvider_ResourceCarriesServiceName(t *testing.T) {
	origMP := otel.GetMeterProvider()
	origTP := otel.GetTracerProvider()
	t.Cleanup(func() {
		otel.SetMeterProvider(origMP)
		otel.SetTracerProvider(origTP)
	})

	var buf bytes.Buffer
	tel, err := InitProvider(context.Background(), ProviderConfig{ServiceVersion: "1.2.3", TraceWriter: &buf})
	if err != nil {
		t.Fatalf("InitProvider: %v", err)
	}

	_, span := otel.Tracer("test").Start(context.Background(), "capture")
	span.End()
	if err := tel.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	out := buf.String()
	for _, want := range []string{`"service.name"`, `"Value":"lookout"`, `"Value":"1.2.3"`, `"telemetry.sdk.language"`} {
		if !strings.Contains(out, want) {
			t.Errorf("span resource missing %s:\n%s", want, out)
		}
	}
}
