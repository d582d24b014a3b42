// Package config loads, validates and writes foldex configuration files.
//
// Configuration is loaded once at startup. Any failure to read, decode or
// validate it is fatal: foldex never classifies with partial rules.
package config
