package utils_test

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/temirov/bigtop-patches/internal/utils"
)

const (
	testEnvironmentPrefixConstant             = "TESTBIGTOPPATCHES"
	testPackagesRootKeyConstant               = "tools.patches.packages_root"
	testPackagesRootEnvironmentKeyConstant    = testEnvironmentPrefixConstant + "_TOOLS_PATCHES_PACKAGES_ROOT"
	testDefaultPackagesRootConstant           = "bigtop-packages/src/common"
	testEmbeddedPackagesRootConstant          = "embedded/common"
	testFilePackagesRootConstant              = "file/common"
	testEnvironmentPackagesRootConstant       = "environment/common"
	testConfigurationNameConstant             = "config"
	testConfigurationTypeConstant             = "yaml"
	testConfigurationFileNameConstant         = "config.yaml"
	testWorkingDirectoryConstant              = "/workspace"
	testConfigurationContentTemplateConstant  = "tools:\n  patches:\n    packages_root: %s\n"
	testSubtestNameTemplateConstant           = "%d_%s"
	testCaseDefaultsConstant                  = "defaults are applied"
	testCaseEmbeddedConstant                  = "embedded configuration overrides defaults"
	testCaseExplicitFileConstant              = "explicit file overrides embedded"
	testCaseSearchedFileConstant              = "searched file overrides embedded"
	testCaseEnvironmentConstant               = "environment overrides file"
	testMissingConfigurationFilePathConstant  = "/missing/config.yaml"
	testExplicitConfigurationFilePathConstant = "/etc/bigtop-patches/config.yaml"
	testMalformedConfigurationContentConstant = "tools: [unterminated"
)

type configurationFixture struct {
	Tools configurationToolsFixture `mapstructure:"tools"`
}

type configurationToolsFixture struct {
	Patches configurationPatchesFixture `mapstructure:"patches"`
}

type configurationPatchesFixture struct {
	PackagesRoot string `mapstructure:"packages_root"`
}

func TestConfigurationLoaderPrecedence(testInstance *testing.T) {
	testCases := []struct {
		name                string
		embeddedValue       string
		explicitFileValue   string
		searchedFileValue   string
		environmentValue    string
		expectedValue       string
		expectedFileUsedSet bool
	}{
		{
			name:          testCaseDefaultsConstant,
			expectedValue: testDefaultPackagesRootConstant,
		},
		{
			name:          testCaseEmbeddedConstant,
			embeddedValue: testEmbeddedPackagesRootConstant,
			expectedValue: testEmbeddedPackagesRootConstant,
		},
		{
			name:                testCaseExplicitFileConstant,
			embeddedValue:       testEmbeddedPackagesRootConstant,
			explicitFileValue:   testFilePackagesRootConstant,
			expectedValue:       testFilePackagesRootConstant,
			expectedFileUsedSet: true,
		},
		{
			name:                testCaseSearchedFileConstant,
			embeddedValue:       testEmbeddedPackagesRootConstant,
			searchedFileValue:   testFilePackagesRootConstant,
			expectedValue:       testFilePackagesRootConstant,
			expectedFileUsedSet: true,
		},
		{
			name:                testCaseEnvironmentConstant,
			searchedFileValue:   testFilePackagesRootConstant,
			environmentValue:    testEnvironmentPackagesRootConstant,
			expectedValue:       testEnvironmentPackagesRootConstant,
			expectedFileUsedSet: true,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			fileSystem := afero.NewMemMapFs()
			require.NoError(testInstance, fileSystem.MkdirAll(testWorkingDirectoryConstant, 0o755))

			explicitConfigurationPath := ""
			if len(testCase.explicitFileValue) > 0 {
				explicitConfigurationPath = testExplicitConfigurationFilePathConstant
				writeConfiguration(testInstance, fileSystem, explicitConfigurationPath, testCase.explicitFileValue)
			}
			if len(testCase.searchedFileValue) > 0 {
				writeConfiguration(testInstance, fileSystem, filepath.Join(testWorkingDirectoryConstant, testConfigurationFileNameConstant), testCase.searchedFileValue)
			}
			if len(testCase.environmentValue) > 0 {
				testInstance.Setenv(testPackagesRootEnvironmentKeyConstant, testCase.environmentValue)
			}

			configurationLoader := utils.NewConfigurationLoader(utils.ConfigurationLoaderSettings{
				ConfigurationName: testConfigurationNameConstant,
				ConfigurationType: testConfigurationTypeConstant,
				EnvironmentPrefix: testEnvironmentPrefixConstant,
				SearchPaths:       []string{testWorkingDirectoryConstant},
				FileSystem:        fileSystem,
			})
			if len(testCase.embeddedValue) > 0 {
				configurationLoader.SetEmbeddedConfiguration([]byte(fmt.Sprintf(testConfigurationContentTemplateConstant, testCase.embeddedValue)), testConfigurationTypeConstant)
			}

			loadedConfiguration := configurationFixture{}
			metadata, loadError := configurationLoader.LoadConfiguration(
				explicitConfigurationPath,
				map[string]any{testPackagesRootKeyConstant: testDefaultPackagesRootConstant},
				&loadedConfiguration,
			)
			require.NoError(testInstance, loadError)
			require.Equal(testInstance, testCase.expectedValue, loadedConfiguration.Tools.Patches.PackagesRoot)
			if testCase.expectedFileUsedSet {
				require.NotEmpty(testInstance, metadata.ConfigFileUsed)
			} else {
				require.Empty(testInstance, metadata.ConfigFileUsed)
			}
		})
	}
}

func TestConfigurationLoaderRejectsMissingExplicitFile(testInstance *testing.T) {
	configurationLoader := utils.NewConfigurationLoader(utils.ConfigurationLoaderSettings{
		ConfigurationName: testConfigurationNameConstant,
		ConfigurationType: testConfigurationTypeConstant,
		EnvironmentPrefix: testEnvironmentPrefixConstant,
		FileSystem:        afero.NewMemMapFs(),
	})

	loadedConfiguration := configurationFixture{}
	_, loadError := configurationLoader.LoadConfiguration(testMissingConfigurationFilePathConstant, nil, &loadedConfiguration)
	require.ErrorContains(testInstance, loadError, testMissingConfigurationFilePathConstant)
}

func TestConfigurationLoaderRejectsMalformedEmbeddedConfiguration(testInstance *testing.T) {
	configurationLoader := utils.NewConfigurationLoader(utils.ConfigurationLoaderSettings{
		ConfigurationName: testConfigurationNameConstant,
		ConfigurationType: testConfigurationTypeConstant,
		EnvironmentPrefix: testEnvironmentPrefixConstant,
		FileSystem:        afero.NewMemMapFs(),
	})
	configurationLoader.SetEmbeddedConfiguration([]byte(testMalformedConfigurationContentConstant), testConfigurationTypeConstant)

	loadedConfiguration := configurationFixture{}
	_, loadError := configurationLoader.LoadConfiguration("", nil, &loadedConfiguration)
	require.ErrorContains(testInstance, loadError, "embedded configuration")
}

func writeConfiguration(testInstance *testing.T, fileSystem afero.Fs, configurationPath string, packagesRoot string) {
	testInstance.Helper()
	configurationContent := fmt.Sprintf(testConfigurationContentTemplateConstant, packagesRoot)
	require.NoError(testInstance, afero.WriteFile(fileSystem, configurationPath, []byte(configurationContent), 0o600))
}
