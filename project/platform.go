package project

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Platform is the destination platform name xcodebuild expects in `generic/platform=`.
type Platform string

const (
	iOS      Platform = "iOS"
	macOS    Platform = "macOS"
	tvOS     Platform = "tvOS"
	watchOS  Platform = "watchOS"
	visionOS Platform = "visionOS"
)

const autoSDK = "auto"

func getPlatform(sdk, supportedPlatforms string) (Platform, error) {
	/*
		SDKROOT is either an SDK name or a path:
		- iphoneos, macosx, appletvos, watchos, xros
		- /Applications/Xcode.app/Contents/Developer/Platforms/iPhoneOS.platform/Developer/SDKs/iPhoneOS13.4.sdk
		Multiplatform targets set it to auto and list their platforms in SUPPORTED_PLATFORMS.
	*/
	sdk = strings.ToLower(sdk)
	if filepath.Ext(sdk) == ".sdk" {
		sdk = filepath.Base(sdk)
	}

	if sdk != autoSDK {
		return sdkPlatform(sdk)
	}

	for _, supported := range strings.Fields(strings.ToLower(supportedPlatforms)) {
		if strings.HasSuffix(supported, "simulator") {
			continue
		}
		if platform, err := sdkPlatform(supported); err == nil {
			return platform, nil
		}
	}
	return iOS, nil
}

func sdkPlatform(sdk string) (Platform, error) {
	switch {
	case sdk == "":
		return iOS, nil
	case strings.HasPrefix(sdk, "iphoneos"):
		return iOS, nil
	case strings.HasPrefix(sdk, "macosx"):
		return macOS, nil
	case strings.HasPrefix(sdk, "appletvos"):
		return tvOS, nil
	case strings.HasPrefix(sdk, "watchos"):
		return watchOS, nil
	case strings.HasPrefix(sdk, "xros"):
		// the visionOS SDK is called xros, the destination platform is visionOS
		return visionOS, nil
	default:
		return "", fmt.Errorf("unknown SDKROOT: %s", sdk)
	}
}
