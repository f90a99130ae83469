package main

// this file contains all the code that directly uses the viper package.
import (
	"github.com/spf13/viper"
)

// EngineConfig holds the deployment-specific settings of the controller. The
// flag layer may override individual fields after the file is read.
type EngineConfig struct {
	// Device is the memory-mappable register file of the controller.
	Device string
	// Cells is how many unit cell windows the device exposes.
	Cells int
	// Port is the listen port in server mode.
	Port int
	// Output is the base name for result files in CLI mode.
	Output string
	// SinkDepth bounds how many finished result groups may queue up before
	// the producing task blocks.
	SinkDepth int
}

var config = EngineConfig{
	Device:    "/dev/qic_regs",
	Cells:     2,
	Port:      8080,
	Output:    "results",
	SinkDepth: 8,
}

// loadConfig reads configuration from a TOML-formatted file called
// 'qicorr.toml'. It looks for this in the /opt folder (the persistent storage
// on the controller's linux image) and then in the current directory, for
// convenience. Returns true if a config file was read.
func loadConfig() bool {
	viper.SetConfigName("qicorr")
	viper.AddConfigPath("/opt")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		return false
	}
	viper.UnmarshalKey("engine", &config)
	return true
}
