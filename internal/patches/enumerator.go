package patches

import (
	"fmt"
	"path/filepath"
	"sort"
	"unicode"

	"github.com/spf13/afero"
)

const (
	patchGlobPatternConstant       = "*.diff"
	patchGlobErrorTemplateConstant = "unable to list patches in %s: %w"
	sortKeyOverflowValueConstant   = ^uint64(0)
	decimalBaseConstant            = 10
)

// Patch is a single diff file of a package.
type Patch struct {
	Name string
	Path string
}

// SortKey returns the value of the first maximal run of Unicode decimal digits in fileName,
// or 0 when there is none. Runs exceeding uint64 saturate.
func SortKey(fileName string) uint64 {
	var sortKey uint64
	insideDigitRun := false
	for _, character := range fileName {
		if !unicode.IsDigit(character) {
			if insideDigitRun {
				return sortKey
			}
			continue
		}
		insideDigitRun = true
		digitValue := uint64(decimalDigitValue(character))
		if sortKey > (sortKeyOverflowValueConstant-digitValue)/decimalBaseConstant {
			sortKey = sortKeyOverflowValueConstant
			continue
		}
		sortKey = sortKey*decimalBaseConstant + digitValue
	}
	return sortKey
}

// decimalDigitValue maps a decimal digit of any script to 0-9. Unicode encodes every
// decimal digit set as ten contiguous code points starting at zero, so adjacent sets
// form runs whose length is a multiple of ten.
func decimalDigitValue(character rune) int {
	runStart := character
	for unicode.IsDigit(runStart - 1) {
		runStart--
	}
	return int(character-runStart) % decimalBaseConstant
}

// Enumerator lists the patches of a package directory.
type Enumerator struct {
	fileSystem afero.Fs
}

// NewEnumerator constructs an Enumerator over fileSystem.
func NewEnumerator(fileSystem afero.Fs) Enumerator {
	return Enumerator{fileSystem: fileSystem}
}

// List returns the *.diff files directly inside packagePath ordered by SortKey, with
// equal keys ordered by file name.
func (enumerator Enumerator) List(packagePath string) ([]Patch, error) {
	matchedPaths, globError := afero.Glob(enumerator.fileSystem, filepath.Join(packagePath, patchGlobPatternConstant))
	if globError != nil {
		return nil, fmt.Errorf(patchGlobErrorTemplateConstant, packagePath, globError)
	}

	discoveredPatches := make([]Patch, 0, len(matchedPaths))
	for _, matchedPath := range matchedPaths {
		discoveredPatches = append(discoveredPatches, Patch{Name: filepath.Base(matchedPath), Path: matchedPath})
	}

	sort.SliceStable(discoveredPatches, func(leftIndex int, rightIndex int) bool {
		leftKey := SortKey(discoveredPatches[leftIndex].Name)
		rightKey := SortKey(discoveredPatches[rightIndex].Name)
		if leftKey != rightKey {
			return leftKey < rightKey
		}
		return discoveredPatches[leftIndex].Name < discoveredPatches[rightIndex].Name
	})

	return discoveredPatches, nil
}
