// Package config loads tabledash.json.
//
// Every field is optional; New returns the defaults and LoadFile overlays
// the file on top of them. Environment variables are applied last by the
// CLI through ApplyEnv.
//
// # Configuration File Structure
//
//	{
//	  "server": {"host": "localhost", "port": 3000},
//	  "api": {
//	    "baseURL": "https://67eb9e33aa794fb3222ae85f.mockapi.io/api/v1",
//	    "timeout": "10s",
//	    "staleTime": "30s",
//	    "retries": 2,
//	    "retryDelay": "200ms",
//	    "optionsDelay": "2s"
//	  },
//	  "table": {
//	    "perPage": 10,
//	    "throttleMs": 50,
//	    "debounceMs": 300,
//	    "history": "replace",
//	    "filterMode": "columns",
//	    "clearOnDefault": true
//	  },
//	  "metrics": {"enabled": true, "path": "/metrics"},
//	  "log": {"level": "info", "format": "text"}
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if config.IsNotFound(err) {
//	    cfg = config.New()
//	} else if err != nil {
//	    log.Fatal(err)
//	}
//	cfg.ApplyEnv(os.Getenv)
package config
