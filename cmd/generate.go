package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"pixgenie/internal/app"
	"pixgenie/internal/gallery"
	"pixgenie/internal/storage"
	"pixgenie/internal/unsplash"
	"pixgenie/pkg/config"
)

const actionQuit = -1

var openBrowser = browser.OpenURL

// openPreview shows url in the system browser, logging a warning on failure.
func openPreview(url string) {
	if err := openBrowser(url); err != nil {
		slog.Warn("Could not open browser", "url", url, "error", err)
	}
}

var (
	generateContent string
	generateFile    string
	generateOut     string
)

var (
	indexStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	galleryCard = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1)
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Pick photos for blog text in the terminal",
	Long: `Extract keywords from blog text and show one Unsplash photo per keyword.
Photos can be previewed in the browser and downloaded to a directory or a
gs://bucket/prefix location.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateContent, "content", "c", "", "Blog content (prompts when empty)")
	generateCmd.Flags().StringVarP(&generateFile, "file", "f", "", "Read blog content from a file")
	generateCmd.Flags().StringVarP(&generateOut, "out", "o", "", "Download target: directory or gs://bucket/prefix")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := cfg.ValidateGenerate(); err != nil {
		return err
	}

	target, err := storage.ParseTarget(downloadTarget(cfg))
	if err != nil {
		return err
	}

	service, err := app.BuildService(cfg)
	if err != nil {
		return err
	}

	content, err := readContent()
	if err != nil {
		return err
	}

	session := service.NewSession()
	session.SetContent(content)

	if !generateImages(ctx, session) {
		return nil
	}

	sinks := &sinkCache{target: target, credentials: cfg.Download.GCSCredentialsFile}
	defer sinks.close()

	return browseGallery(ctx, session, sinks)
}

func downloadTarget(cfg *config.Config) string {
	if generateOut != "" {
		return generateOut
	}
	if cfg.Download.GCSBucket != "" {
		return "gs://" + cfg.Download.GCSBucket + "/" + cfg.Download.GCSPrefix
	}
	return cfg.Download.Dir
}

func readContent() (string, error) {
	if generateContent != "" {
		return generateContent, nil
	}
	if generateFile != "" {
		data, err := os.ReadFile(generateFile)
		if err != nil {
			return "", fmt.Errorf("read content: %w", err)
		}
		return string(data), nil
	}

	var content string
	if err := huh.NewText().
		Title("Blog content").
		Description("Paste the post you want photos for").
		Placeholder("Enter your blog content here...").
		CharLimit(0).
		Lines(10).
		Value(&content).
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New(gallery.MsgContentRequired)
			}
			return nil
		}).
		Run(); err != nil {
		return "", err
	}
	return content, nil
}

// generateImages runs cycles until one succeeds or the user gives up.
func generateImages(ctx context.Context, session *gallery.Session) bool {
	for {
		err := runWithSpinner("Generating images", func() error {
			return session.Submit(ctx)
		})
		if err == nil {
			return true
		}

		state := session.State()
		switch {
		case state.ValidationMessage != "":
			fmt.Println(warnStyle.Render(state.ValidationMessage))
			return false
		case state.Error != "":
			fmt.Println(warnStyle.Render(state.Error))
		default:
			fmt.Println(warnStyle.Render(err.Error()))
		}

		if ctx.Err() != nil {
			return false
		}

		var retry bool
		if err := huh.NewConfirm().
			Title("Try again?").
			Value(&retry).
			Run(); err != nil || !retry {
			return false
		}
	}
}

func browseGallery(ctx context.Context, session *gallery.Session, sinks *sinkCache) error {
	images := session.State().Images
	if len(images) == 0 {
		fmt.Println(infoStyle.Render("No photos found for this text."))
		return nil
	}

	fmt.Println(renderGallery(images))

	for {
		index, err := choosePhoto(images)
		if err != nil || index == actionQuit {
			return err
		}

		if err := photoActions(ctx, session, images[index], sinks); err != nil {
			return err
		}
	}
}

func renderGallery(images []unsplash.Photo) string {
	cards := make([]string, len(images))
	for i, photo := range images {
		lines := []string{
			indexStyle.Render(fmt.Sprintf("#%d", i+1)) + " " + describePhoto(photo),
			mutedStyle.Render(fmt.Sprintf("%dx%d", photo.Width, photo.Height)),
		}
		if photo.User.Name != "" {
			lines = append(lines, mutedStyle.Render("Photo by "+photo.User.Name+" on Unsplash"))
		}
		cards[i] = galleryCard.Render(strings.Join(lines, "\n"))
	}
	return titleStyle.Render("Your photos") + "\n" + lipgloss.JoinVertical(lipgloss.Left, cards...)
}

func describePhoto(photo unsplash.Photo) string {
	if photo.AltDescription != "" {
		return photo.AltDescription
	}
	if photo.Description != "" {
		return photo.Description
	}
	return "Generated image"
}

func choosePhoto(images []unsplash.Photo) (int, error) {
	options := make([]huh.Option[int], 0, len(images)+1)
	for i, photo := range images {
		options = append(options, huh.NewOption(fmt.Sprintf("#%d %s", i+1, describePhoto(photo)), i))
	}
	options = append(options, huh.NewOption("Quit", actionQuit))

	var choice int
	if err := huh.NewSelect[int]().
		Title("Pick a photo").
		Options(options...).
		Value(&choice).
		Run(); err != nil {
		return actionQuit, err
	}
	return choice, nil
}

func photoActions(ctx context.Context, session *gallery.Session, photo unsplash.Photo, sinks *sinkCache) error {
	var action string
	if err := huh.NewSelect[string]().
		Title(describePhoto(photo)).
		Options(
			huh.NewOption("Preview in browser", "preview"),
			huh.NewOption("Download", "download"),
			huh.NewOption("Back", "back"),
		).
		Value(&action).
		Run(); err != nil {
		return err
	}

	switch action {
	case "preview":
		session.OpenPreview(photo)
		defer session.ClosePreview()
		if url, ok := session.PreviewURL(); ok {
			fmt.Println(infoStyle.Render("Preview: " + url))
			openPreview(url)
		}
	case "download":
		sink, err := sinks.get(ctx)
		if err != nil {
			fmt.Println(warnStyle.Render(fmt.Sprintf("Download target unavailable: %v", err)))
			return nil
		}
		var location string
		_ = runWithSpinner("Downloading "+gallery.FileName(photo), func() error {
			location, err = session.Download(ctx, photo, sink)
			return err
		})
		if location != "" {
			fmt.Println(infoStyle.Render("Saved to " + location))
		}
	}
	return nil
}

// sinkCache opens the download target on first use.
type sinkCache struct {
	target      storage.Target
	credentials string
	sink        storage.Sink
	closeFn     func() error
}

func (c *sinkCache) get(ctx context.Context) (storage.Sink, error) {
	if c.sink != nil {
		return c.sink, nil
	}
	sink, closeFn, err := storage.Open(ctx, c.target, c.credentials)
	if err != nil {
		return nil, err
	}
	c.sink, c.closeFn = sink, closeFn
	return sink, nil
}

func (c *sinkCache) close() {
	if c.closeFn != nil {
		_ = c.closeFn()
	}
}
