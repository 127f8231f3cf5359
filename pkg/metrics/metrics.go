package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	KafkaMessagesConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_consumed_total",
			Help: "Number of messages fetched from Kafka",
		},
		[]string{"topic"},
	)
	KafkaMessagesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_processed_total",
			Help: "Number of messages processed successfully",
		},
		[]string{"topic"},
	)
	KafkaMessagesFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_failed_total",
			Help: "Number of messages failed to process",
		},
		[]string{"topic"},
	)
)

var (
	GeoCacheOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocache_operations_total",
			Help: "Geocoding cache operations",
		},
		[]string{"op"}, // hit|miss|evicted
	)
	GeoCacheSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "geocache_size",
			Help: "Number of entries currently in the geocoding cache",
		},
	)
	GeocoderRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocoder_requests_total",
			Help: "Reverse geocoding lookups against the external service",
		},
		[]string{"status"}, // ok|error
	)
)

var (
	UploadItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upload_items_total",
			Help: "Upload queue item transitions",
		},
		[]string{"op"}, // accepted|rejected|success|error|retried|removed
	)
	UploadBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "upload_bytes_total",
			Help: "Bytes successfully uploaded to the photo store",
		},
	)
)

// MustRegister — регистрирует коллекторы; повторная регистрация не считается
// ошибкой (вызывается и из bootstrap, и из тестов разных пакетов).
func MustRegister() {
	collectors := []prometheus.Collector{
		KafkaMessagesConsumed, KafkaMessagesProcessed, KafkaMessagesFailed,
		GeoCacheOps, GeoCacheSize, GeocoderRequests,
		UploadItems, UploadBytes,
	}
	for _, c := range collectors {
		if err := prometheus.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			panic(err)
		}
	}
}
