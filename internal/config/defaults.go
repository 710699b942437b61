package config

const (
	defaultStateDir      = "~/.local/share/schedconvert"
	defaultLogDir        = "~/.local/share/schedconvert/logs"
	defaultBatchCount    = 15
	defaultWorker        = "./run-pipe.py"
	defaultPartition     = PartitionFloor
	defaultOnSpawnError  = SpawnErrorContinue
	defaultTempPrefix    = "temp"
	defaultOutputDirName = "converted"
	defaultLedgerFile    = "runs.db"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
)

// Partition policies understood by the batch planner.
const (
	PartitionFloor    = "floor"
	PartitionBalanced = "balanced"
)

// Spawn error policies.
const (
	SpawnErrorContinue = "continue"
	SpawnErrorAbort    = "abort"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Dispatch: Dispatch{
			BatchCount:   defaultBatchCount,
			Worker:       defaultWorker,
			Partition:    defaultPartition,
			OnSpawnError: defaultOnSpawnError,
			TempPrefix:   defaultTempPrefix,
			OutputDir:    defaultOutputDirName,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
