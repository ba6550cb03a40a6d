// Package config provides layered configuration for asciienc.
//
// Configuration is resolved from four sources, higher overriding lower:
//
//	┌─────────────────────────────┐
//	│  4. Command Line Flags      │  ← Highest priority
//	├─────────────────────────────┤
//	│  3. Environment Variables   │  ← ASCIIENC_*
//	├─────────────────────────────┤
//	│  2. Config File             │  ← .toml, .yaml or .yml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// Load applies layers 1 to 3. Flags belong to the caller, which applies
// them to the returned Config and then calls Validate.
//
// # Usage
//
//	cfg, err := config.Load(path)
//	if err != nil {
//	    return err
//	}
//	cfg.Log.Level = levelFlag
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//
// # Live Reload
//
// A Watcher re-reads the file when it changes and hands the new Config to a
// callback. Only settings that can change while a bridge runs, such as the
// log level, should be taken from it.
package config
