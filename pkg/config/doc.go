// Package config assembles the configuration of every component.
//
// Values are layered: built-in defaults, then an optional YAML file, then environment
// variables. Each package keeps owning its Config type and environment names; this
// package only nests them under one YAML document:
//
//	bus:
//	  kind: kafka
//	kafka:
//	  brokers: ["kafka-1:9092", "kafka-2:9092"]
//	router:
//	  payload_format: json
//	analytics:
//	  driver: duckdb
//	  duckdb_path: /var/lib/telemetry/analytics.duckdb
//
// Environment variables keep their flat names (KAFKA_BROKERS, ANALYTICS_DRIVER, ...)
// regardless of nesting.
package config
