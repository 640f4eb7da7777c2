package tabula

import (
	"testing"
)

func BenchmarkEventBusSubscribe(b *testing.B) {
	runSizes(b, func(b *testing.B, size int) {
		b.ReportAllocs()
		for b.Loop() {
			bus := &EventBus{}
			for range size {
				Subscribe(bus, func(e TestEvent) {})
			}
		}
	})
}

func BenchmarkEventBusPublishNoHandlers(b *testing.B) {
	bus := &EventBus{}
	event := TestEvent{Value: 42}
	b.ReportAllocs()
	for b.Loop() {
		Publish(bus, event)
	}
}

func BenchmarkEventBusPublishOneHandler(b *testing.B) {
	bus := &EventBus{}
	Subscribe(bus, func(e TestEvent) {})
	event := TestEvent{Value: 42}
	b.ReportAllocs()
	for b.Loop() {
		Publish(bus, event)
	}
}

func BenchmarkEventBusPublishManyHandlers(b *testing.B) {
	runSizes(b, func(b *testing.B, size int) {
		bus := &EventBus{}
		for range size {
			Subscribe(bus, func(e TestEvent) {})
		}
		event := TestEvent{Value: 42}
		b.ReportAllocs()
		b.ResetTimer()
		for b.Loop() {
			Publish(bus, event)
		}
	})
}
