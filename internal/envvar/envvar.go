// Package envvar names the environment variables voxgate reads.
package envvar

const (
	// VoxgateEnv selects the runtime environment (development or production).
	VoxgateEnv = "VOXGATE_ENV"

	// VoxgateConfig overrides the config file path.
	VoxgateConfig = "VOXGATE_CONFIG"

	// VoxgateServerHTTPPort overrides server.http_port.
	VoxgateServerHTTPPort = "VOXGATE_SERVER_HTTP_PORT"

	// VoxgateServerGRPCPort overrides server.grpc_port.
	VoxgateServerGRPCPort = "VOXGATE_SERVER_GRPC_PORT"

	// VoxgateModelsDir overrides storage.models_dir.
	VoxgateModelsDir = "VOXGATE_MODELS_DIR"

	// VoxgateTempDir overrides storage.temp_dir.
	VoxgateTempDir = "VOXGATE_TEMP_DIR"

	// VoxgateWorkDir overrides storage.work_dir.
	VoxgateWorkDir = "VOXGATE_WORK_DIR"

	// VoxgateLogFile enables the rotating log file sink at that path.
	VoxgateLogFile = "VOXGATE_LOG_FILE"

	// OpenAIAPIKey is the fallback credential for the openai backend.
	OpenAIAPIKey = "OPENAI_API_KEY"
)
