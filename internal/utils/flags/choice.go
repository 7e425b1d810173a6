package flags

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

const (
	choicePlaceholderPrefix         = "<"
	choicePlaceholderSuffix         = ">"
	choiceSeparatorLiteral          = "|"
	choiceUsageEmptyTemplate        = "`%s`"
	choiceUsageFullTemplate         = "`%s` %s"
	invalidChoiceErrorTemplate      = "invalid %s %q (choose from %s)"
	missingChoiceErrorTemplate      = "%s is required (choose from %s)"
	choiceListSeparatorLiteral      = ", "
	emptyChoiceListPlaceholderValue = "none available"
)

// FormatChoiceUsage builds a usage string where the default option is capitalized inside a placeholder.
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	placeholder := choicePlaceholderPrefix + strings.Join(highlightDefaultChoice(defaultChoice, choices), choiceSeparatorLiteral) + choicePlaceholderSuffix
	if len(strings.TrimSpace(description)) == 0 {
		return fmt.Sprintf(choiceUsageEmptyTemplate, placeholder)
	}
	return fmt.Sprintf(choiceUsageFullTemplate, placeholder, description)
}

// ValidateChoice returns the trimmed value when it is one of choices. The subject names
// the value in error messages, e.g. "package" or "operating system".
func ValidateChoice(subject string, value string, choices []string) (string, error) {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return "", fmt.Errorf(missingChoiceErrorTemplate, subject, describeChoices(choices))
	}
	for _, choice := range choices {
		if strings.TrimSpace(choice) == trimmedValue {
			return trimmedValue, nil
		}
	}
	return "", fmt.Errorf(invalidChoiceErrorTemplate, subject, trimmedValue, describeChoices(choices))
}

// ChoiceCompletion returns a Cobra completion function offering choices resolved lazily by provider.
func ChoiceCompletion(provider func() []string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(command *cobra.Command, arguments []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if provider == nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		completions := make([]string, 0)
		for _, choice := range provider() {
			if strings.HasPrefix(choice, toComplete) {
				completions = append(completions, choice)
			}
		}
		return completions, cobra.ShellCompDirectiveNoFileComp
	}
}

func describeChoices(choices []string) string {
	if len(choices) == 0 {
		return emptyChoiceListPlaceholderValue
	}
	return strings.Join(choices, choiceListSeparatorLiteral)
}

func highlightDefaultChoice(defaultChoice string, choices []string) []string {
	normalizedDefault := strings.ToLower(strings.TrimSpace(defaultChoice))
	highlighted := make([]string, 0, len(choices))
	seen := make(map[string]struct{}, len(choices))

	for _, choice := range choices {
		trimmedChoice := strings.TrimSpace(choice)
		if len(trimmedChoice) == 0 {
			continue
		}

		normalizedChoice := strings.ToLower(trimmedChoice)
		if _, exists := seen[normalizedChoice]; exists {
			continue
		}

		displayValue := trimmedChoice
		if normalizedChoice == normalizedDefault {
			displayValue = strings.ToUpper(trimmedChoice)
		}

		highlighted = append(highlighted, displayValue)
		seen[normalizedChoice] = struct{}{}
	}

	return highlighted
}
