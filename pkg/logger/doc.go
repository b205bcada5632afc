// Package logger provides structured logging for pickmeup, built on zerolog.
//
// A global logger is available through GetLogger and the package-level
// convenience functions. Initialize configures it from a
// config.LoggingConfig; before initialization a default console logger at
// info level is used.
package logger
