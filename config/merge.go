package config

// mergeConfigs merges override configuration into base, field by field.
// Only non-zero override values win.
func mergeConfigs(base, override *Config) *Config {
	result := *base

	if override.Version != "" {
		result.Version = override.Version
	}
	if override.StartURL != "" {
		result.StartURL = override.StartURL
	}
	if override.Storage.LoginDataPath != "" {
		result.Storage.LoginDataPath = override.Storage.LoginDataPath
	}

	result.Audio = mergeAudio(result.Audio, override.Audio)

	if override.Window.GeometryDebounceMs != 0 {
		result.Window.GeometryDebounceMs = override.Window.GeometryDebounceMs
	}
	if override.Control.SocketPath != "" {
		result.Control.SocketPath = override.Control.SocketPath
	}

	// Merge extensions
	if override.Extensions != nil {
		if result.Extensions == nil {
			result.Extensions = make(map[string]interface{})
		}
		for key, value := range override.Extensions {
			// If both base and override have the same extension key, merge them
			if baseValue, exists := result.Extensions[key]; exists {
				if baseMap, baseOk := baseValue.(map[string]interface{}); baseOk {
					if overrideMap, overrideOk := value.(map[string]interface{}); overrideOk {
						mergedMap := make(map[string]interface{})
						for k, v := range baseMap {
							mergedMap[k] = v
						}
						for k, v := range overrideMap {
							mergedMap[k] = v
						}
						result.Extensions[key] = mergedMap
						continue
					}
				}
			}
			// Otherwise just replace
			result.Extensions[key] = value
		}
	}

	return &result
}

func mergeAudio(base, override AudioConfig) AudioConfig {
	result := base

	if override.RestartCommand != "" {
		result.RestartCommand = override.RestartCommand
	}
	if override.StatusCommand != "" {
		result.StatusCommand = override.StatusCommand
	}
	if override.UnitCheckCommand != "" {
		result.UnitCheckCommand = override.UnitCheckCommand
	}
	if override.PollIntervalSeconds != 0 {
		result.PollIntervalSeconds = override.PollIntervalSeconds
	}
	if override.RestartTimeoutSeconds != 0 {
		result.RestartTimeoutSeconds = override.RestartTimeoutSeconds
	}

	return result
}
