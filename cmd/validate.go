package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/mixcoach/internal/catalog"
	"github.com/abhisek/mixcoach/internal/questionbank"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and content files",
	Long: `Validate loads the configuration and checks the content catalog and
question bank. With --content or --questions, external YAML files are
checked instead of the embedded ones.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var errs []error

		if _, err := loadConfig(cmd); err != nil {
			errs = append(errs, err)
		} else {
			fmt.Println("config:    ok")
		}

		if path, _ := cmd.Flags().GetString("content"); path != "" {
			if err := checkFile(path, func(b []byte) (int, error) {
				c, err := catalog.Load(b)
				if err != nil {
					return 0, err
				}
				return c.Len(), nil
			}); err != nil {
				errs = append(errs, fmt.Errorf("content %s: %w", path, err))
			}
		} else {
			fmt.Printf("content:   ok (%d embedded items)\n", catalog.Default().Len())
		}

		if path, _ := cmd.Flags().GetString("questions"); path != "" {
			if err := checkFile(path, func(b []byte) (int, error) {
				bank, err := questionbank.Load(b)
				if err != nil {
					return 0, err
				}
				return bank.Len(), nil
			}); err != nil {
				errs = append(errs, fmt.Errorf("questions %s: %w", path, err))
			}
		} else {
			fmt.Printf("questions: ok (%d embedded questions)\n", questionbank.Default().Len())
		}

		return errors.Join(errs...)
	},
}

func checkFile(path string, load func([]byte) (int, error)) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	n, err := load(b)
	if err != nil {
		return err
	}
	fmt.Printf("%s: ok (%d entries)\n", path, n)
	return nil
}

func init() {
	validateCmd.Flags().String("content", "", "Content catalog YAML to check")
	validateCmd.Flags().String("questions", "", "Question bank YAML to check")
}
