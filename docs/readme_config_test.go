package docs_test

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/bigtop-patches/cmd/cli"
	"github.com/temirov/bigtop-patches/internal/utils"
)

const (
	readmeFileNameConstant           = "README.md"
	yamlFenceStartConstant           = "```yaml"
	yamlFenceEndConstant             = "```"
	configHeaderMarkerConstant       = "# config.yaml"
	readmeSnippetFileNameConstant    = "config.yaml"
	readmeEnvironmentPrefixConstant  = "READMEBIGTOPPATCHES"
	parentDirectoryReferenceConstant = ".."
	missingHeaderMessageConstant     = "README example missing config header marker"
	missingStartFenceMessageConstant = "README example missing yaml fence start"
	missingEndFenceMessageConstant   = "README example missing yaml fence end"
)

type toolSections struct {
	Common map[string]any            `yaml:"common"`
	Tools  map[string]map[string]any `yaml:"tools"`
}

func TestReadmeConfigurationMatchesEmbeddedDefaults(testInstance *testing.T) {
	snippetContent := readReadmeConfigurationSnippet(testInstance)

	var readmeSections toolSections
	require.NoError(testInstance, yaml.Unmarshal([]byte(snippetContent), &readmeSections))

	embeddedContent, _ := cli.EmbeddedDefaultConfiguration()
	var embeddedSections toolSections
	require.NoError(testInstance, yaml.Unmarshal(embeddedContent, &embeddedSections))

	require.Equal(testInstance, sortedKeys(embeddedSections.Common), sortedKeys(readmeSections.Common))
	require.Equal(testInstance, sortedKeys(embeddedSections.Tools), sortedKeys(readmeSections.Tools))
	for toolName, embeddedOptions := range embeddedSections.Tools {
		require.Equal(testInstance, sortedKeys(embeddedOptions), sortedKeys(readmeSections.Tools[toolName]), toolName)
	}
}

func TestReadmeConfigurationLoads(testInstance *testing.T) {
	snippetContent := readReadmeConfigurationSnippet(testInstance)

	configurationPath := filepath.Join(testInstance.TempDir(), readmeSnippetFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationPath, []byte(snippetContent), 0o644))

	loader := utils.NewConfigurationLoader(utils.ConfigurationLoaderSettings{
		ConfigurationName: "config",
		ConfigurationType: "yaml",
		EnvironmentPrefix: readmeEnvironmentPrefixConstant,
	})

	var applicationConfiguration cli.ApplicationConfiguration
	loadedConfiguration, loadError := loader.LoadConfiguration(configurationPath, nil, &applicationConfiguration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, configurationPath, loadedConfiguration.ConfigFileUsed)

	require.Equal(testInstance, "console", applicationConfiguration.Common.LogFormat)
	require.Equal(testInstance, "Applying patches", applicationConfiguration.Tools.Patches.CommitMessage)
	require.Equal(testInstance, []string{"centos7", "redhat8"}, applicationConfiguration.Tools.Upload.OperatingSystems)
	require.Equal(testInstance, 22, applicationConfiguration.Tools.Upload.Port)

	sanitizedPatches := applicationConfiguration.Tools.Patches.Sanitize()
	require.False(testInstance, strings.HasPrefix(sanitizedPatches.PackagesRoot, "~"))
}

func readReadmeConfigurationSnippet(testInstance *testing.T) string {
	testInstance.Helper()

	workingDirectory, workingDirectoryError := os.Getwd()
	require.NoError(testInstance, workingDirectoryError)

	readmePath := filepath.Join(workingDirectory, parentDirectoryReferenceConstant, readmeFileNameConstant)
	contentBytes, readError := os.ReadFile(readmePath)
	require.NoError(testInstance, readError)

	contentText := string(contentBytes)
	headerIndex := strings.Index(contentText, configHeaderMarkerConstant)
	require.NotEqual(testInstance, -1, headerIndex, missingHeaderMessageConstant)

	fenceStartIndex := strings.LastIndex(contentText[:headerIndex], yamlFenceStartConstant)
	require.NotEqual(testInstance, -1, fenceStartIndex, missingStartFenceMessageConstant)

	remainingText := contentText[headerIndex:]
	fenceEndRelativeIndex := strings.Index(remainingText, yamlFenceEndConstant)
	require.NotEqual(testInstance, -1, fenceEndRelativeIndex, missingEndFenceMessageConstant)
	fenceEndIndex := headerIndex + fenceEndRelativeIndex

	return strings.TrimSpace(contentText[fenceStartIndex+len(yamlFenceStartConstant) : fenceEndIndex])
}

func sortedKeys[Value any](values map[string]Value) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
