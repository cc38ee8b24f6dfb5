// Package config loads remastered project configuration.
//
// Configuration lives in remastered.json at the project root. Any format
// viper understands works (remastered.yaml, remastered.toml), and every key
// can be overridden from the environment with the REMASTERED_ prefix, dots
// replaced by underscores:
//
//	REMASTERED_DEV_PORT=4000 remastered dev
//
// # Configuration File Structure
//
//	{
//	  "name": "my-app",
//	  "paths": {
//	    "app": "app",
//	    "routes": "app/routes"
//	  },
//	  "dev": {
//	    "port": 3000,
//	    "host": "localhost",
//	    "hotReload": true
//	  },
//	  "build": {
//	    "output": "dist",
//	    "minify": true,
//	    "tags": ["prod"]
//	  },
//	  "server": {
//	    "addr": ":3000",
//	    "metrics": true
//	  },
//	  "export": {
//	    "dir": "dist/exported",
//	    "s3": {"bucket": "my-bucket", "prefix": "exported"}
//	  }
//	}
//
// The package also owns the process-wide project root, which is write-once.
package config
