// scanner.go - Repository tree scanner

package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"docsite-generator/internal/config"
	"docsite-generator/internal/errs"
	"docsite-generator/internal/utils"
	"docsite-generator/pkg/logger"

	gitignore "github.com/sabhiram/go-gitignore"
)

var errMaxFilesReached = errors.New("max file count reached")

type Scanner struct {
	config config.ConfigScan
	logger logger.Logger
}

func NewScanner(config config.ConfigScan, logger logger.Logger) *Scanner {
	return &Scanner{
		config: config,
		logger: logger,
	}
}

// Scan walks the repository tree once and builds its metadata snapshot.
// Scanning an unchanged tree twice yields deeply equal metadata.
func (s *Scanner) Scan(rootPath string) (*RepositoryMetadata, error) {
	startTime := time.Now()

	info, err := os.Stat(rootPath)
	if err != nil {
		return nil, errs.NewScanError(rootPath, err)
	}
	if !info.IsDir() {
		return nil, errs.NewScanError(rootPath, fmt.Errorf("not a directory"))
	}

	s.logger.Info("scanning repository: %s", rootPath)

	ignore := s.loadIgnoreRules(rootPath)
	maxFileSize := int64(s.config.MaxFileSizeKB) * 1024

	metadata := &RepositoryMetadata{
		RootPath:            rootPath,
		LanguageStats:       make(map[string]*LanguageStat),
		DirectoryCategories: map[string]Category{".": CategorySource},
	}

	walkErr := filepath.WalkDir(rootPath, func(entryPath string, d fs.DirEntry, err error) error {
		if err != nil {
			if entryPath == rootPath {
				return err
			}
			s.logger.Warn("skipping unreadable entry %s: %v", entryPath, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(rootPath, entryPath)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if relPath == "." {
				return nil
			}
			if ignore.MatchesPath(relPath + "/") {
				s.logger.Debug("ignoring directory: %s", relPath)
				return filepath.SkipDir
			}
			metadata.DirectoryCategories[relPath] = classifyDir(relPath, metadata.DirectoryCategories)
			return nil
		}

		if ignore.MatchesPath(relPath) {
			return nil
		}

		fileInfo, err := d.Info()
		if err != nil {
			s.logger.Warn("skipping file %s: %v", relPath, err)
			return nil
		}
		if maxFileSize > 0 && fileInfo.Size() > maxFileSize {
			s.logger.Debug("skipping oversized file %s (%d bytes)", relPath, fileInfo.Size())
			return nil
		}
		if s.config.MaxFiles > 0 && len(metadata.Files) >= s.config.MaxFiles {
			return errMaxFilesReached
		}

		dirCategory := metadata.DirectoryCategories[path.Dir(relPath)]
		language := detectLanguage(relPath)
		metadata.Files = append(metadata.Files, FileEntry{
			RelPath:  relPath,
			Size:     fileInfo.Size(),
			Category: classifyFile(relPath, dirCategory),
			Language: language,
		})

		if language != "" {
			stat := metadata.LanguageStats[language]
			if stat == nil {
				stat = &LanguageStat{}
				metadata.LanguageStats[language] = stat
			}
			stat.FileCount++
			if lines, err := utils.CountLines(entryPath); err == nil {
				stat.LineCount += lines
			} else {
				s.logger.Debug("failed to count lines in %s: %v", relPath, err)
			}
		}
		return nil
	})
	if walkErr != nil {
		if !errors.Is(walkErr, errMaxFilesReached) {
			return nil, errs.NewScanError(rootPath, walkErr)
		}
		s.logger.Warn("file limit reached (%d), scan truncated", s.config.MaxFiles)
	}

	metadata.KeyFiles = selectKeyFiles(metadata.Files)
	metadata.ProjectMetadata = s.extractProjectMetadata(rootPath, metadata)

	s.logger.Info("scan completed: %d files, %d lines, %d languages, elapsed: %v",
		metadata.TotalFiles(), metadata.TotalLines(), len(metadata.LanguageStats), time.Since(startTime))
	return metadata, nil
}

// loadIgnoreRules merges the configured exclude directories with the
// repository's own .gitignore rules.
func (s *Scanner) loadIgnoreRules(rootPath string) *gitignore.GitIgnore {
	lines := make([]string, 0, len(s.config.ExcludeDirs))
	for _, dir := range s.config.ExcludeDirs {
		lines = append(lines, strings.TrimSuffix(dir, "/")+"/")
	}

	gitignorePath := filepath.Join(rootPath, ".gitignore")
	if content, err := os.ReadFile(gitignorePath); err == nil {
		for _, line := range strings.Split(string(content), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			lines = append(lines, line)
		}
		s.logger.Debug("loaded .gitignore rules from %s", gitignorePath)
	}

	return gitignore.CompileIgnoreLines(utils.UniqueStringSlice(lines)...)
}

// classifyDir classifies a directory by its own name, inheriting the
// nearest classified ancestor when no rule matches. Ancestors are always
// classified first because the walk is top-down.
func classifyDir(relPath string, categories map[string]Category) Category {
	if category, ok := classifyDirName(path.Base(relPath)); ok {
		return category
	}
	if category, ok := categories[path.Dir(relPath)]; ok {
		return category
	}
	return CategorySource
}
