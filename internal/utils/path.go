// utils/path.go - Path handling utilities
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

var (
	AppRootDir = "./.docsite-generator"
	LogsDir    = "./.docsite-generator/logs"
	CacheDir   = "./.docsite-generator/cache"
)

// GetRootDir gets the cross-platform application root directory.
// Windows: %USERPROFILE%/.appname, Linux/macOS: ~/.appname
// (XDG_CONFIG_HOME respected on Linux when set)
func GetRootDir(appName string) (string, error) {
	var rootDir string

	switch runtime.GOOS {
	case "windows":
		if userProfile := os.Getenv("USERPROFILE"); userProfile != "" {
			rootDir = filepath.Join(userProfile, "."+appName)
		} else if appData := os.Getenv("APPDATA"); appData != "" {
			rootDir = filepath.Join(appData, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			rootDir = filepath.Join(homeDir, "."+appName)
		}
	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		rootDir = filepath.Join(homeDir, "."+appName)
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			rootDir = filepath.Join(xdgConfig, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			rootDir = filepath.Join(homeDir, "."+appName)
		}
	}

	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return "", err
	}

	AppRootDir = rootDir

	return rootDir, nil
}

// GetLogDir gets the log directory under the application root
func GetLogDir(rootPath string) (string, error) {
	if _, err := os.Stat(rootPath); os.IsNotExist(err) {
		return "", fmt.Errorf("root path %s does not exist", rootPath)
	}

	logPath := filepath.Join(rootPath, "logs")
	if err := os.MkdirAll(logPath, 0755); err != nil {
		return "", err
	}

	LogsDir = logPath

	return logPath, nil
}

// GetCacheDir gets the cache directory under the application root
func GetCacheDir(rootPath string) (string, error) {
	if _, err := os.Stat(rootPath); os.IsNotExist(err) {
		return "", fmt.Errorf("root path %s does not exist", rootPath)
	}

	cachePath := filepath.Join(rootPath, "cache")
	if err := os.MkdirAll(cachePath, 0755); err != nil {
		return "", err
	}

	CacheDir = cachePath

	return cachePath, nil
}

// PathDepth counts the separator-delimited segments of a relative
// slash path ("a/b/c" is depth 3, "a" is depth 1)
func PathDepth(relPath string) int {
	if relPath == "" || relPath == "." {
		return 0
	}
	depth := 1
	for _, r := range relPath {
		if r == '/' {
			depth++
		}
	}
	return depth
}
