package google

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"

	ports "gastos/internal/drive"
)

type Client struct {
	svc *gdrive.Service
}

var _ ports.Remote = (*Client)(nil)

// Credentials selects how the client authenticates. A service account is
// preferred; otherwise an OAuth client file plus a token saved by
// oauth-init is used.
type Credentials struct {
	ServiceAccountJSON string
	ServiceAccountFile string
	OAuthClientFile    string
	OAuthTokenFile     string
}

// New creates a Drive client limited to files created by the application.
func New(ctx context.Context, creds Credentials) (*Client, error) {
	opt, err := authOption(ctx, creds)
	if err != nil {
		return nil, err
	}
	svc, err := gdrive.NewService(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	slog.InfoContext(ctx, "Google Drive service created successfully")
	return &Client{svc: svc}, nil
}

// NewWithService wraps an existing service.
func NewWithService(svc *gdrive.Service) *Client {
	return &Client{svc: svc}
}

func authOption(ctx context.Context, creds Credentials) (goption.ClientOption, error) {
	switch {
	case creds.ServiceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline service account credentials")
		return serviceAccountOption(ctx, []byte(creds.ServiceAccountJSON))
	case creds.ServiceAccountFile != "":
		data, err := os.ReadFile(creds.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.InfoContext(ctx, "Using service account credentials file", "path", creds.ServiceAccountFile)
		return serviceAccountOption(ctx, data)
	case creds.OAuthClientFile != "" && creds.OAuthTokenFile != "":
		base := context.WithValue(ctx, oauth2.HTTPClient, NewHTTPClient())
		ts, err := oauthTokenSource(base, creds.OAuthClientFile, creds.OAuthTokenFile)
		if err != nil {
			return nil, err
		}
		slog.InfoContext(ctx, "Using OAuth user credentials", "token_file", creds.OAuthTokenFile)
		return goption.WithHTTPClient(oauth2.NewClient(base, ts)), nil
	}
	return nil, errors.New("missing Google credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, GOOGLE_APPLICATION_CREDENTIALS or run oauth-init)")
}

// serviceAccountConfig parses service account credentials with the
// drive.file scope.
func serviceAccountConfig(data []byte) (*jwt.Config, error) {
	cfg, err := goauth.JWTConfigFromJSON(data, gdrive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}
	return cfg, nil
}

func serviceAccountOption(ctx context.Context, data []byte) (goption.ClientOption, error) {
	cfg, err := serviceAccountConfig(data)
	if err != nil {
		return nil, err
	}
	base := context.WithValue(ctx, oauth2.HTTPClient, NewHTTPClient())
	return goption.WithHTTPClient(cfg.Client(base)), nil
}

func oauthTokenSource(ctx context.Context, clientFile, tokenFile string) (oauth2.TokenSource, error) {
	clientJSON, err := os.ReadFile(clientFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth client file: %w", err)
	}
	cfg, err := OAuthConfig(clientJSON)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, fmt.Errorf("decode oauth token: %w", err)
	}
	return cfg.TokenSource(ctx, &tok), nil
}

// OAuthConfig parses an OAuth client file and requests access to the
// files created by the application.
func OAuthConfig(clientJSON []byte) (*oauth2.Config, error) {
	cfg, err := goauth.ConfigFromJSON(clientJSON, gdrive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	return cfg, nil
}

// SaveToken writes tok to path, readable by the owner only.
func SaveToken(path string, tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("encode oauth token: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write oauth token: %w", err)
	}
	return nil
}

// NewHTTPClient returns a pooled client for Drive uploads and downloads.
func NewHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   5,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 60 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 120 * time.Second}
}

func (c *Client) EnsureFolder(ctx context.Context, name string) (string, error) {
	q := fmt.Sprintf("mimeType='%s' and name='%s' and trashed=false", ports.FolderMimeType, escapeQuery(name))
	list, err := c.svc.Files.List().Q(q).Spaces("drive").Fields("files(id, name)").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("search folder %q: %w", name, err)
	}
	if len(list.Files) > 0 {
		slog.DebugContext(ctx, "Drive folder found", "folder", name, "id", list.Files[0].Id)
		return list.Files[0].Id, nil
	}

	folder, err := c.svc.Files.Create(&gdrive.File{Name: name, MimeType: ports.FolderMimeType}).
		Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create folder %q: %w", name, err)
	}
	slog.InfoContext(ctx, "Drive folder created", "folder", name, "id", folder.Id)
	return folder.Id, nil
}

func (c *Client) Stat(ctx context.Context, id string) (ports.File, error) {
	f, err := c.svc.Files.Get(id).Fields("id, name, modifiedTime, trashed").Context(ctx).Do()
	if err != nil {
		return ports.File{}, mapError(id, err)
	}
	if f.Trashed {
		return ports.File{}, fmt.Errorf("%s: %w", id, ports.ErrFileNotFound)
	}
	return toFile(f), nil
}

func (c *Client) Download(ctx context.Context, id string) ([]byte, error) {
	resp, err := c.svc.Files.Get(id).Context(ctx).Download()
	if err != nil {
		return nil, mapError(id, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", id, err)
	}
	return data, nil
}

func (c *Client) Upload(ctx context.Context, folderID, id, name string, data []byte) (ports.File, error) {
	media := googleapi.ContentType(ports.XLSXMimeType)
	const fields = "id, name, modifiedTime"

	if id != "" {
		f, err := c.svc.Files.Update(id, &gdrive.File{}).
			Media(bytes.NewReader(data), media).Fields(fields).Context(ctx).Do()
		if err != nil {
			return ports.File{}, mapError(id, err)
		}
		slog.InfoContext(ctx, "Workbook updated on Drive", "id", f.Id, "size", len(data))
		return toFile(f), nil
	}

	meta := &gdrive.File{Name: name, MimeType: ports.XLSXMimeType}
	if folderID != "" {
		meta.Parents = []string{folderID}
	}
	f, err := c.svc.Files.Create(meta).Media(bytes.NewReader(data), media).Fields(fields).Context(ctx).Do()
	if err != nil {
		return ports.File{}, fmt.Errorf("create %q: %w", name, err)
	}
	slog.InfoContext(ctx, "Workbook uploaded to Drive", "id", f.Id, "name", name, "size", len(data))
	return toFile(f), nil
}

func (c *Client) ShareLink(ctx context.Context, id string) (string, error) {
	_, err := c.svc.Permissions.Create(id, &gdrive.Permission{Type: "anyone", Role: "reader"}).
		Context(ctx).Do()
	if err != nil {
		return "", mapError(id, err)
	}
	return ShareURL(id), nil
}

// ShareURL is the public view link of a Drive file.
func ShareURL(id string) string {
	return fmt.Sprintf("https://drive.google.com/file/d/%s/view?usp=sharing", id)
}

func toFile(f *gdrive.File) ports.File {
	out := ports.File{ID: f.Id, Name: f.Name}
	if t, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
		out.ModifiedTime = t
	}
	return out
}

func mapError(id string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
		return fmt.Errorf("%s: %w", id, ports.ErrFileNotFound)
	}
	return fmt.Errorf("drive file %s: %w", id, err)
}

func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
