package internal

import "strconv"

// DefaultCollectionFileName is the cache file name Firefox for Android uses
// for the English "Extensions-for-Android" collection. Dropping a file with
// this name into the app's cache directory overrides the AMO response.
const DefaultCollectionFileName = "mozilla_components_addon_collection_en_Extensions-for-Android.json"

// Environment variables read by LoadConfig.
const (
	EnvCollectionName = "COLLECTION_JSON_NAME"
	EnvEmbedArchives  = "CREATE_ONE_BIG_FILE"
)

// Config holds the runtime application configuration
type Config struct {
	OutputPath string
	Mode       LocatorMode
}

// LoadConfig builds a Config from environment lookups. getenv is normally
// os.Getenv.
//
// CREATE_ONE_BIG_FILE enables embedded archives. Values understood by
// strconv.ParseBool decide on/off; any other non-empty value turns it on.
func LoadConfig(getenv func(string) string) Config {
	cfg := Config{
		OutputPath: DefaultCollectionFileName,
		Mode:       LocatorDevicePath,
	}
	if name := getenv(EnvCollectionName); name != "" {
		cfg.OutputPath = name
	}
	if raw := getenv(EnvEmbedArchives); raw != "" {
		embed, err := strconv.ParseBool(raw)
		if err != nil {
			embed = true
		}
		if embed {
			cfg.Mode = LocatorEmbedded
		}
	}
	return cfg
}
