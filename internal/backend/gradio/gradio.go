// Package gradio provides a minimal client for Gradio apps (Hugging Face Spaces) over their REST "call" API.
//
// A prediction is two round-trips: POST {base}{prefix}/call/{api} returns an event id,
// then GET {base}{prefix}/call/{api}/{event_id} streams server-sent events until "complete" or "error".
// File outputs are downloaded into the local store and replaced by their local paths,
// the same way the Python gradio_client does.
package gradio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
	sse "github.com/tmaxmax/go-sse"
)

const (
	DefaultAPIPrefix = "/gradio_api"
	fileDataType     = "gradio.FileData"
	maxEventSize     = 16 << 20 // complete-событие несёт все выходы целиком
)

var (
	ErrPredictionFailed = errors.New("gradio prediction failed")
	ErrNoCompleteEvent  = errors.New("gradio event stream ended without result")
)

// FileData - описание файла в формате gradio
type FileData struct {
	Path     *string           `json:"path"`
	URL      *string           `json:"url"`
	Size     *int64            `json:"size"`
	OrigName *string           `json:"orig_name"`
	MimeType *string           `json:"mime_type"`
	IsStream bool              `json:"is_stream"`
	Meta     map[string]string `json:"meta"`
}

// FileFromURL - аналог handle_file(url): сервер сам скачает картинку
func FileFromURL(u string) FileData {
	name := path.Base(u)
	if parsed, err := url.Parse(u); err == nil && parsed.Path != "" {
		name = path.Base(parsed.Path)
	}
	return FileData{
		Path:     &u,
		URL:      &u,
		OrigName: &name,
		Meta:     map[string]string{"_type": fileDataType},
	}
}

// FileStore - контракт для хранилища скачанных результатов
type FileStore interface {
	Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error
	Path(key string) string
}

type Options struct {
	Space      string // "owner/name" или полный URL приложения
	Token      string // HF token
	APIPrefix  string
	HTTPClient *http.Client
}

type Client struct {
	baseURL string
	token   string
	prefix  string
	http    *http.Client
	store   FileStore
}

func NewClient(opts Options, store FileStore) (*Client, error) {
	if opts.Space == "" {
		return nil, errors.New("gradio space must be provided")
	}
	if opts.Token == "" {
		return nil, errors.New("gradio HF token must be provided")
	}
	if store == nil {
		return nil, errors.New("nil file store provided to gradio client")
	}

	prefix := opts.APIPrefix
	if prefix == "" {
		prefix = DefaultAPIPrefix
	}
	if prefix == "/" {
		prefix = ""
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		baseURL: SpaceURL(opts.Space),
		token:   opts.Token,
		prefix:  strings.TrimSuffix(prefix, "/"),
		http:    httpClient,
		store:   store,
	}, nil
}

// SpaceURL переводит "owner/name" в https://owner-name.hf.space, полный URL оставляет как есть
func SpaceURL(space string) string {
	space = strings.TrimSpace(space)
	if strings.HasPrefix(space, "http://") || strings.HasPrefix(space, "https://") {
		return strings.TrimSuffix(space, "/")
	}
	host := strings.ToLower(space)
	host = strings.NewReplacer("/", "-", "_", "-", ".", "-").Replace(host)
	return "https://" + host + ".hf.space"
}

// Predict вызывает api (например "/inpaint") с позиционными параметрами.
// Файловые выходы скачиваются, вместо них возвращаются локальные пути.
// Если выход один - он возвращается без обёртки в список.
func (c *Client) Predict(ctx context.Context, api string, params []any) (any, error) {
	api = strings.TrimPrefix(api, "/")

	eventID, err := c.submit(ctx, api, params)
	if err != nil {
		return nil, err
	}

	raw, err := c.await(ctx, api, eventID)
	if err != nil {
		return nil, err
	}

	var outputs []any
	if err := json.Unmarshal(raw, &outputs); err != nil {
		return nil, fmt.Errorf("failed to parse gradio outputs: %w", err)
	}

	for i := range outputs {
		if outputs[i], err = c.resolveFiles(ctx, outputs[i]); err != nil {
			return nil, err
		}
	}

	if len(outputs) == 1 {
		return outputs[0], nil
	}
	return outputs, nil
}

func (c *Client) submit(ctx context.Context, api string, params []any) (string, error) {
	if params == nil {
		params = []any{}
	}
	body, err := json.Marshal(map[string]any{"data": params})
	if err != nil {
		return "", fmt.Errorf("failed to marshal gradio payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.callURL(api), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("gradio submit request failed: %w", err)
	}
	defer closeBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", statusError("submit", resp)
	}

	var out struct {
		EventID string `json:"event_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode gradio submit response: %w", err)
	}
	if out.EventID == "" {
		return "", errors.New("gradio submit response has empty event_id")
	}
	return out.EventID, nil
}

func (c *Client) await(ctx context.Context, api, eventID string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.callURL(api)+"/"+url.PathEscape(eventID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gradio result request failed: %w", err)
	}
	defer closeBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("result", resp)
	}

	return readEvents(resp.Body)
}

// readEvents читает SSE-поток до события complete/error
func readEvents(r io.Reader) (json.RawMessage, error) {
	for ev, err := range sse.Read(r, &sse.ReadConfig{MaxEventSize: maxEventSize}) {
		if err != nil {
			return nil, fmt.Errorf("failed to read gradio event stream: %w", err)
		}

		switch ev.Type {
		case "complete":
			return json.RawMessage(ev.Data), nil
		case "error":
			msg := strings.Trim(ev.Data, "\" ")
			if msg == "" || msg == "null" {
				msg = "no details provided by the app"
			}
			return nil, fmt.Errorf("%w: %s", ErrPredictionFailed, msg)
		}
	}
	return nil, ErrNoCompleteEvent
}

// resolveFiles рекурсивно заменяет FileData на локальные пути
func (c *Client) resolveFiles(ctx context.Context, v any) (any, error) {
	switch val := v.(type) {
	case []any:
		for i := range val {
			res, err := c.resolveFiles(ctx, val[i])
			if err != nil {
				return nil, err
			}
			val[i] = res
		}
		return val, nil
	case map[string]any:
		if !isFileData(val) {
			return val, nil
		}
		return c.download(ctx, val)
	default:
		return v, nil
	}
}

func isFileData(m map[string]any) bool {
	if meta, ok := m["meta"].(map[string]any); ok && meta["_type"] == fileDataType {
		return true
	}
	_, hasPath := m["path"].(string)
	_, hasName := m["orig_name"]
	return hasPath && hasName
}

func (c *Client) download(ctx context.Context, file map[string]any) (string, error) {
	remotePath, _ := file["path"].(string)
	fileURL, _ := file["url"].(string)
	if fileURL == "" {
		if remotePath == "" {
			return "", errors.New("gradio file output has neither url nor path")
		}
		fileURL = c.baseURL + c.prefix + "/file=" + remotePath
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return "", err
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download gradio file: %w", err)
	}
	defer closeBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", statusError("file download", resp)
	}

	name, _ := file["orig_name"].(string)
	if name == "" {
		name = path.Base(remotePath)
	}
	if name == "" || name == "." || name == "/" {
		name = "output"
	}

	key := uuid.NewString() + "/" + path.Base(name)
	if err := c.store.Put(ctx, key, resp.ContentLength, resp.Header.Get("Content-Type"), resp.Body); err != nil {
		return "", fmt.Errorf("failed to store gradio file: %w", err)
	}
	return c.store.Path(key), nil
}

func (c *Client) callURL(api string) string {
	return c.baseURL + c.prefix + "/call/" + api
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
}

func statusError(stage string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return fmt.Errorf("gradio %s: unexpected status %d: %s", stage, resp.StatusCode, strings.TrimSpace(string(body)))
}

func closeBody(b io.ReadCloser) {
	_, _ = io.CopyN(io.Discard, b, 4096)
	_ = b.Close()
}
