package ffmpeg

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/kelriclink/VideoTranSrt/internal/logging"
)

const (
	ffmpegReleaseVersion = "6.1"
	ffmpegReleaseBaseURL = "https://github.com/ffbinaries/ffbinaries-prebuilt/releases/download"

	EnvFFmpegPath  = "VIDEOTRANSRT_FFMPEG_PATH"
	EnvFFprobePath = "VIDEOTRANSRT_FFPROBE_PATH"
)

type BinaryPaths struct {
	FFmpeg  string
	FFprobe string
}

// Locator finds ffmpeg and ffprobe. Lookup order: configured paths, the
// environment, PATH, the download cache, then a fresh download when
// allowed. The first successful lookup is remembered.
type Locator struct {
	FFmpegPath    string
	FFprobePath   string
	CacheDir      string // defaults to the user cache dir
	AllowDownload bool
	BaseURL       string // release mirror, for tests

	logger *logging.Logger
	client *http.Client

	mu       sync.Mutex
	resolved *BinaryPaths
}

func NewLocator(ffmpegPath, ffprobePath string, logger *logging.Logger) *Locator {
	return &Locator{
		FFmpegPath:    ffmpegPath,
		FFprobePath:   ffprobePath,
		AllowDownload: true,
		BaseURL:       ffmpegReleaseBaseURL,
		logger:        logging.OrNop(logger),
		client:        http.DefaultClient,
	}
}

func (l *Locator) Paths(ctx context.Context) (BinaryPaths, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.resolved != nil {
		return *l.resolved, nil
	}
	paths, err := l.locate(ctx)
	if err != nil {
		return BinaryPaths{}, err
	}
	l.resolved = &paths
	return paths, nil
}

func (l *Locator) FFmpeg(ctx context.Context) (string, error) {
	paths, err := l.Paths(ctx)
	if err != nil {
		return "", err
	}
	return paths.FFmpeg, nil
}

func (l *Locator) FFprobe(ctx context.Context) (string, error) {
	paths, err := l.Paths(ctx)
	if err != nil {
		return "", err
	}
	return paths.FFprobe, nil
}

func (l *Locator) locate(ctx context.Context) (BinaryPaths, error) {
	ffmpegPath := firstNonEmpty(l.FFmpegPath, os.Getenv(EnvFFmpegPath))
	ffprobePath := firstNonEmpty(l.FFprobePath, os.Getenv(EnvFFprobePath))

	if ffmpegPath == "" {
		if found, err := exec.LookPath("ffmpeg"); err == nil {
			ffmpegPath = found
		}
	}
	if ffprobePath == "" {
		if found, err := exec.LookPath("ffprobe"); err == nil {
			ffprobePath = found
		}
	}
	if ffmpegPath != "" && ffprobePath != "" {
		l.logger.Debugw("using ffmpeg binaries", "ffmpeg", ffmpegPath, "ffprobe", ffprobePath)
		return BinaryPaths{FFmpeg: ffmpegPath, FFprobe: ffprobePath}, nil
	}

	installDir, err := l.installDir()
	if err != nil {
		return BinaryPaths{}, err
	}
	exeSuffix := executableSuffix()
	cached := BinaryPaths{
		FFmpeg:  filepath.Join(installDir, "ffmpeg"+exeSuffix),
		FFprobe: filepath.Join(installDir, "ffprobe"+exeSuffix),
	}
	if binariesExist(cached.FFmpeg, cached.FFprobe) {
		return cached, nil
	}

	if !l.AllowDownload {
		return BinaryPaths{}, errors.New(
			"ffmpeg and ffprobe not found: install them, set ffmpeg_path/ffprobe_path, or set " +
				EnvFFmpegPath + " and " + EnvFFprobePath,
		)
	}

	assetName, err := assetForPlatform(runtime.GOOS, runtime.GOARCH)
	if err != nil {
		return BinaryPaths{}, err
	}
	if err := os.MkdirAll(installDir, 0o755); err != nil {
		return BinaryPaths{}, fmt.Errorf("create ffmpeg cache dir: %w", err)
	}

	l.logger.Infow("downloading ffmpeg", "version", ffmpegReleaseVersion, "dir", installDir)
	if err := l.downloadAndExtract(ctx, assetName, installDir); err != nil {
		return BinaryPaths{}, err
	}
	if !binariesExist(cached.FFmpeg, cached.FFprobe) {
		return BinaryPaths{}, errors.New("ffmpeg binaries not found after extraction")
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(cached.FFmpeg, 0o755); err != nil {
			return BinaryPaths{}, fmt.Errorf("chmod ffmpeg: %w", err)
		}
		if err := os.Chmod(cached.FFprobe, 0o755); err != nil {
			return BinaryPaths{}, fmt.Errorf("chmod ffprobe: %w", err)
		}
	}
	return cached, nil
}

func (l *Locator) installDir() (string, error) {
	cacheDir := l.CacheDir
	if cacheDir == "" {
		dir, err := os.UserCacheDir()
		if err != nil || dir == "" {
			dir = os.TempDir()
		}
		cacheDir = filepath.Join(dir, "videotransrt")
	}
	return filepath.Join(
		cacheDir,
		"ffmpeg",
		ffmpegReleaseVersion,
		runtime.GOOS,
		runtime.GOARCH,
	), nil
}

func assetForPlatform(goos, goarch string) (string, error) {
	switch {
	case goos == "linux" && goarch == "amd64":
		return "ffmpeg-" + ffmpegReleaseVersion + "-linux-64.zip", nil
	case goos == "linux" && goarch == "arm64":
		return "ffmpeg-" + ffmpegReleaseVersion + "-linux-arm-64.zip", nil
	case goos == "darwin" && goarch == "amd64":
		return "ffmpeg-" + ffmpegReleaseVersion + "-macos-64.zip", nil
	case goos == "windows" && goarch == "amd64":
		return "ffmpeg-" + ffmpegReleaseVersion + "-win-64.zip", nil
	default:
		return "", fmt.Errorf("no prebuilt ffmpeg for %s/%s, install it and put it on PATH", goos, goarch)
	}
}

func (l *Locator) downloadAndExtract(ctx context.Context, assetName, installDir string) error {
	url := fmt.Sprintf("%s/v%s/%s", strings.TrimRight(l.BaseURL, "/"), ffmpegReleaseVersion, assetName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("download ffmpeg bundle: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("download ffmpeg bundle: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download ffmpeg bundle: unexpected status %s", resp.Status)
	}

	return extractArchiveFromReader(assetName, resp.Body, installDir)
}

func extractArchiveFromReader(assetName string, reader io.Reader, installDir string) error {
	tmpFile, err := os.CreateTemp("", "videotransrt-ffmpeg-*.zip")
	if err != nil {
		return fmt.Errorf("create temp archive: %w", err)
	}
	archivePath := tmpFile.Name()
	defer func() { _ = os.Remove(archivePath) }()

	if _, err := io.Copy(tmpFile, reader); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("write archive: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}

	if err := extractArchive(archivePath, installDir); err != nil {
		return fmt.Errorf("extract %s: %w", assetName, err)
	}
	return nil
}

// pulls the ffmpeg and ffprobe entries out of a release zip, ignoring
// their directory inside the archive
func extractArchive(archivePath, installDir string) error {
	zipReader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open ffmpeg archive: %w", err)
	}
	defer func() { _ = zipReader.Close() }()

	ffmpegFound := false
	ffprobeFound := false
	for _, file := range zipReader.File {
		name := strings.ToLower(filepath.Base(file.Name))
		switch name {
		case "ffmpeg", "ffmpeg.exe":
			if err := extractZipFile(file, filepath.Join(installDir, "ffmpeg"+executableSuffix())); err != nil {
				return err
			}
			ffmpegFound = true
		case "ffprobe", "ffprobe.exe":
			if err := extractZipFile(file, filepath.Join(installDir, "ffprobe"+executableSuffix())); err != nil {
				return err
			}
			ffprobeFound = true
		}
	}

	if !ffmpegFound || !ffprobeFound {
		return fmt.Errorf("ffmpeg archive missing required binaries")
	}
	return nil
}

func extractZipFile(file *zip.File, dest string) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("open ffmpeg archive entry: %w", err)
	}
	defer func() { _ = reader.Close() }()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create ffmpeg output dir: %w", err)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create ffmpeg binary: %w", err)
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, reader); err != nil {
		return fmt.Errorf("write ffmpeg binary: %w", err)
	}
	return nil
}

func binariesExist(ffmpegPath, ffprobePath string) bool {
	return fileExists(ffmpegPath) && fileExists(ffprobePath)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func executableSuffix() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}
