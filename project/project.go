package project

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-xcode/xcodeproject/schemeint"
	"github.com/bitrise-io/go-xcode/xcodeproject/xcodeproj"
	"github.com/bitrise-io/go-xcode/xcodeproject/xcscheme"
	"github.com/bitrise-io/go-xcode/xcodeproject/xcworkspace"
)

const defaultArchiveConfiguration = "Release"

// Descriptor is the project metadata the archive command is templated with.
type Descriptor struct {
	containerPath string
	scheme        string
	configuration string
	productName   string
	platform      Platform
}

// ProductName ...
func (d Descriptor) ProductName() string {
	return d.productName
}

// SchemeName ...
func (d Descriptor) SchemeName() string {
	return d.scheme
}

// Platform ...
func (d Descriptor) Platform() string {
	return string(d.platform)
}

// Configuration is the build configuration the metadata was read for.
func (d Descriptor) Configuration() string {
	return d.configuration
}

// ContainerPath ...
func (d Descriptor) ContainerPath() string {
	return d.containerPath
}

// Opener reads project descriptors.
type Opener struct {
	settingsReader BuildSettingsReader
	logger         log.Logger
}

// NewOpener ...
func NewOpener(settingsReader BuildSettingsReader, logger log.Logger) Opener {
	return Opener{settingsReader: settingsReader, logger: logger}
}

// Open resolves the scheme, product name and platform of a project or workspace.
// The project file is read first; xcodebuild is only asked when that is not enough.
func (o Opener) Open(containerPath, scheme, configuration string) (Descriptor, error) {
	if scheme == "" {
		names, err := schemeNames(containerPath)
		if err != nil {
			return Descriptor{}, fmt.Errorf("failed to list schemes of %s: %w", containerPath, err)
		}
		if len(names) != 1 {
			return Descriptor{}, fmt.Errorf("no scheme provided and %d schemes found in %s, please specify one", len(names), containerPath)
		}
		scheme = names[0]
		o.logger.Printf("Using the only scheme found: %s", scheme)
	}

	d := Descriptor{containerPath: containerPath, scheme: scheme, configuration: configuration}

	o.logger.TPrintf("Reading build settings of scheme: %s", scheme)

	settings, err := o.readProjectSettings(&d)
	if err != nil {
		o.logger.Warnf("Failed to read build settings from the project file: %s", err)
		o.logger.Printf("Falling back to xcodebuild -showBuildSettings")

		d.configuration = configuration
		if settings, err = o.settingsReader.ReadBuildSettings(containerPath, scheme, configuration); err != nil {
			return Descriptor{}, fmt.Errorf("failed to read build settings of scheme (%s): %w", scheme, err)
		}
	}

	d.productName = settings["PRODUCT_NAME"]
	if d.productName == "" {
		o.logger.Warnf("Product name not found in build settings, using scheme (%s) as product name", scheme)
		d.productName = scheme
	}

	platform, err := getPlatform(settings["SDKROOT"], settings["SUPPORTED_PLATFORMS"])
	if err != nil {
		return Descriptor{}, fmt.Errorf("failed to read project platform: %w", err)
	}
	d.platform = platform

	o.logger.Printf("Product name: %s, platform: %s", d.productName, d.platform)

	return d, nil
}

func (o Opener) readProjectSettings(d *Descriptor) (map[string]string, error) {
	proj, target, err := o.archivableTarget(d)
	if err != nil {
		return nil, err
	}

	if d.configuration == "" {
		d.configuration = defaultArchiveConfiguration
	}

	settings, err := buildSettings(proj, target, d.configuration)
	if err != nil {
		return nil, err
	}

	resolved := resolveBuildSettings(settings, map[string]string{
		"TARGET_NAME":  target.Name,
		"PROJECT_NAME": proj.Name,
	})
	if resolved["PRODUCT_NAME"] == "" {
		resolved["PRODUCT_NAME"] = target.Name
	}

	// unknown SDKs are left to xcodebuild
	if _, err := getPlatform(resolved["SDKROOT"], resolved["SUPPORTED_PLATFORMS"]); err != nil {
		return nil, err
	}

	return resolved, nil
}

// archivableTarget finds the application target the scheme archives,
// or the target named after the scheme when no such scheme exists.
func (o Opener) archivableTarget(d *Descriptor) (xcodeproj.XcodeProj, xcodeproj.Target, error) {
	scheme, schemeContainer, err := schemeint.Scheme(d.containerPath, d.scheme)
	if err != nil {
		if !xcscheme.IsNotFoundError(err) {
			return xcodeproj.XcodeProj{}, xcodeproj.Target{}, err
		}

		o.logger.Warnf("Scheme (%s) not found, looking for a target with the same name", d.scheme)
		return targetByName(d.containerPath, d.scheme)
	}

	entry, ok := scheme.AppBuildActionEntry()
	if !ok {
		return xcodeproj.XcodeProj{}, xcodeproj.Target{}, fmt.Errorf("scheme (%s) has no archivable application target", scheme.Name)
	}

	projectPath, err := entry.BuildableReference.ReferencedContainerAbsPath(filepath.Dir(schemeContainer))
	if err != nil {
		return xcodeproj.XcodeProj{}, xcodeproj.Target{}, err
	}

	proj, err := xcodeproj.Open(projectPath)
	if err != nil {
		return xcodeproj.XcodeProj{}, xcodeproj.Target{}, err
	}

	target, ok := proj.Proj.Target(entry.BuildableReference.BlueprintIdentifier)
	if !ok {
		return xcodeproj.XcodeProj{}, xcodeproj.Target{}, fmt.Errorf("target (%s) not found in %s", entry.BuildableReference.BlueprintName, projectPath)
	}

	if d.configuration == "" {
		d.configuration = scheme.ArchiveAction.BuildConfiguration
	}

	return proj, target, nil
}

func targetByName(containerPath, name string) (xcodeproj.XcodeProj, xcodeproj.Target, error) {
	projectPaths := []string{containerPath}
	if xcworkspace.IsWorkspace(containerPath) {
		workspace, err := xcworkspace.Open(containerPath)
		if err != nil {
			return xcodeproj.XcodeProj{}, xcodeproj.Target{}, err
		}

		if projectPaths, err = workspace.ProjectFileLocations(); err != nil {
			return xcodeproj.XcodeProj{}, xcodeproj.Target{}, err
		}
	}

	for _, pth := range projectPaths {
		proj, err := xcodeproj.Open(pth)
		if err != nil {
			return xcodeproj.XcodeProj{}, xcodeproj.Target{}, err
		}

		if target, ok := proj.Proj.TargetByName(name); ok {
			return proj, target, nil
		}
	}

	return xcodeproj.XcodeProj{}, xcodeproj.Target{}, fmt.Errorf("no target named %s found in %s", name, containerPath)
}

// schemeNames lists the schemes Xcode shows for the project or workspace.
func schemeNames(containerPath string) ([]string, error) {
	var schemes []xcscheme.Scheme
	if xcworkspace.IsWorkspace(containerPath) {
		workspace, err := xcworkspace.Open(containerPath)
		if err != nil {
			return nil, err
		}

		schemesByContainer, err := workspace.Schemes()
		if err != nil {
			return nil, err
		}
		for _, containerSchemes := range schemesByContainer {
			schemes = append(schemes, containerSchemes...)
		}
	} else {
		proj, err := xcodeproj.Open(containerPath)
		if err != nil {
			return nil, err
		}

		if schemes, err = proj.Schemes(); err != nil {
			return nil, err
		}
	}

	seen := map[string]bool{}
	var names []string
	for _, scheme := range schemes {
		if seen[scheme.Name] {
			continue
		}
		seen[scheme.Name] = true
		names = append(names, scheme.Name)
	}
	sort.Strings(names)

	return names, nil
}
