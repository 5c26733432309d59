// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package upload

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const (
	defaultContentType = "application/octet-stream"

	// maxGraphNameLength is the number of characters kept from joined file names.
	maxGraphNameLength = 50
)

// File is one uploaded file with its bytes buffered in memory, so it can be
// sent to the scraper more than once.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Session is a prepared upload: the target graph and one document per file.
// DocumentIDs[i] belongs to Files[i].
type Session struct {
	OwnerID     string
	GraphID     string
	DocumentIDs []string
	Files       []File
}

// ReadFiles loads files from disk. The content type is guessed from the
// file extension.
func ReadFiles(paths ...string) ([]File, error) {
	files := make([]File, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		name := filepath.Base(path)
		files = append(files, File{
			Name:        name,
			ContentType: contentType(name, ""),
			Data:        data,
		})
	}
	return files, nil
}

func contentType(name, declared string) string {
	if declared != "" {
		return declared
	}
	if guessed := mime.TypeByExtension(filepath.Ext(name)); guessed != "" {
		return guessed
	}
	return defaultContentType
}

// graphName joins file names with " & ", truncated to maxGraphNameLength characters.
func graphName(files []File) string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	name := strings.Join(names, " & ")
	if utf8.RuneCountInString(name) <= maxGraphNameLength {
		return name
	}
	return string([]rune(name)[:maxGraphNameLength]) + "…"
}
