// Package config provides configuration parsing for the reactor tooling.
//
// The configuration is stored in reactor.yaml (or reactor.yml /
// reactor.json) in the working directory. Every field has a default, so the
// file is optional. Environment variables prefixed with REACTOR_ override
// file values.
//
// # Configuration File Structure
//
//	log:
//	  level: info
//	  format: text
//	budget:
//	  maxPassesPerFlush: 1000
//	  maxEffectRunsPerPass: 0
//	bench:
//	  workload: diamond
//	  size: 64
//	  iterations: 10000
//	  profiles:
//	    wide:
//	      workload: fan
//	      size: 1024
//	devtools:
//	  host: localhost
//	  port: 7070
//	  workload: dynamic
//	  tick: 500ms
//	metrics:
//	  enabled: true
//	  namespace: reactor
//	tracing:
//	  enabled: false
//	report:
//	  output: reactor-report.json
//	  bucket: my-bench-results
//	  region: us-east-1
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	logger := cfg.Logger(os.Stderr)
package config
