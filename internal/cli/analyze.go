package cli

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	domain "github.com/bryanwahyu/reason3/internal/domain/analysis"
)

func newAnalyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze text, a file, an image or a URL",
		Long: `Prints the JSON report to stdout and the analysis status to stderr.
The exit code is 0 whenever a report was produced, including fallback reports.`,
		Example: `  reason3 analyze --text "Coffee cures cancer, says study"
  reason3 analyze --image chart.png --text "Sales tripled"
  reason3 analyze --flavor accessibility --url https://example.com --personas visual,motor`,
		RunE: runAnalyze,
	}

	cmd.Flags().StringP("text", "t", "", "Text to analyze")
	cmd.Flags().StringP("file", "f", "", "Read text to analyze from a file (- for stdin)")
	cmd.Flags().StringP("image", "i", "", "Image file to attach")
	cmd.Flags().StringP("url", "u", "", "Page to analyze")
	cmd.Flags().String("flavor", string(domain.FlavorClaims), "Analysis flavor: claims or accessibility")
	cmd.Flags().StringSlice("personas", nil, "Accessibility personas: visual, motor, color")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	text, _ := cmd.Flags().GetString("text")
	file, _ := cmd.Flags().GetString("file")
	image, _ := cmd.Flags().GetString("image")
	url, _ := cmd.Flags().GetString("url")
	flavor, _ := cmd.Flags().GetString("flavor")
	personas, _ := cmd.Flags().GetStringSlice("personas")

	if file != "" {
		body, err := readInput(cmd.InOrStdin(), file)
		if err != nil {
			return err
		}
		text = body
	}
	if strings.TrimSpace(text) == "" && image == "" && url == "" {
		return fmt.Errorf("nothing to analyze: pass --text, --file, --image or --url")
	}

	req := domain.Request{
		Content:   text,
		MediaType: domain.MediaText,
		URL:       url,
		Personas:  domain.ParsePersonas(personas),
	}
	if image != "" {
		dataURL, err := imageDataURL(image)
		if err != nil {
			return err
		}
		req.MediaType = domain.MediaImage
		req.ImageData = dataURL
	}

	app, err := loadApp(cmd.Context(), cmd, "console")
	if err != nil {
		return err
	}
	defer app.Close()

	svc, err := app.Service(domain.Flavor(flavor))
	if err != nil {
		return err
	}
	res := svc.Analyze(cmd.Context(), req)

	fmt.Fprintf(cmd.ErrOrStderr(), "status: %s id: %s duration: %s\n", res.Status, res.ID, res.Duration)
	return printJSON(cmd.OutOrStdout(), res.Report)
}

func readInput(stdin io.Reader, path string) (string, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(b), nil
}

// imageDataURL encodes an image file as a base64 data URL.
func imageDataURL(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	mime := http.DetectContentType(b)
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("%s is not an image (%s)", path, mime)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(b), nil
}
