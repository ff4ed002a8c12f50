package project

import (
	"fmt"
	"regexp"

	"github.com/bitrise-io/go-xcode/xcodeproject/serialized"
	"github.com/bitrise-io/go-xcode/xcodeproject/xcodeproj"
)

var buildSettingReferenceRegexp = regexp.MustCompile(`\$[({]([A-Za-z0-9_]+)(?::[^)}]*)?[)}]`)

// buildSettings merges the project level settings of the configuration with the target level ones.
func buildSettings(proj xcodeproj.XcodeProj, target xcodeproj.Target, configuration string) (map[string]string, error) {
	projectSettings, projectFound := configurationSettings(proj.Proj.BuildConfigurationList, configuration)
	targetSettings, targetFound := configurationSettings(target.BuildConfigurationList, configuration)
	if !projectFound && !targetFound {
		return nil, fmt.Errorf("build configuration (%s) not found for target (%s)", configuration, target.Name)
	}

	settings := map[string]string{}
	for _, object := range []serialized.Object{projectSettings, targetSettings} {
		for _, key := range object.Keys() {
			// list values are skipped
			if value, err := object.String(key); err == nil {
				settings[key] = value
			}
		}
	}
	return settings, nil
}

func configurationSettings(list xcodeproj.ConfigurationList, configuration string) (serialized.Object, bool) {
	for _, buildConfiguration := range list.BuildConfigurations {
		if buildConfiguration.Name == configuration {
			return buildConfiguration.BuildSettings, true
		}
	}
	return nil, false
}

// resolveBuildSettings expands the references of every value against the settings and the given variables.
// The variables win over same named settings.
func resolveBuildSettings(settings, vars map[string]string) map[string]string {
	lookup := map[string]string{}
	for key, value := range settings {
		lookup[key] = value
	}
	for key, value := range vars {
		lookup[key] = value
	}

	resolved := map[string]string{}
	for key, value := range settings {
		resolved[key] = expandBuildSetting(value, lookup)
	}
	return resolved
}

// expandBuildSetting resolves $(NAME), ${NAME} and $(NAME:modifier) references one level deep.
func expandBuildSetting(value string, vars map[string]string) string {
	return buildSettingReferenceRegexp.ReplaceAllStringFunc(value, func(reference string) string {
		match := buildSettingReferenceRegexp.FindStringSubmatch(reference)
		if resolved, ok := vars[match[1]]; ok {
			return resolved
		}
		return reference
	})
}
