// Package config provides configuration parsing for the glint CLI.
//
// The configuration is stored in glint.json in the working directory.
// A missing file yields the defaults; GLINT_* environment variables
// override both.
//
// # Configuration File Structure
//
//	{
//	  "logLevel": "info",
//	  "maxFlushRounds": 64,
//	  "devtools": {
//	    "host": "localhost",
//	    "port": 6360
//	  },
//	  "bench": {
//	    "iterations": 10000,
//	    "chainDepth": 32,
//	    "fanout": 100
//	  }
//	}
package config
