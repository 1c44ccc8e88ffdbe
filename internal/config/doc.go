// Package config loads regform configuration.
//
// Settings are layered: built-in defaults, then regform.json, then a .env
// file, then REGFORM_* environment variables. Later layers win.
//
// # Configuration File Structure
//
//	{
//	  "debounce": "500ms",
//	  "asyncLatency": "1s",
//	  "submitLatency": "1s",
//	  "minFirstName": 3,
//	  "minLastName": 2,
//	  "queueSize": 256,
//	  "logLevel": "info",
//	  "logFormat": "text",
//	  "metricsAddr": ":9090"
//	}
//
// # Environment
//
//	REGFORM_DEBOUNCE=750ms
//	REGFORM_LOG_LEVEL=debug
//	REGFORM_METRICS_ADDR=:9090
//
// # Usage
//
//	cfg, err := config.Load("regform.json", ".env")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Debounce:", cfg.Debounce)
package config
