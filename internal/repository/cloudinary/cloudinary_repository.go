package cloudinary

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// UploadResult is what the caller persists: the hosted URL plus the public id
// needed to delete the asset later.
type UploadResult struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

// CloudinaryRepository uploads and destroys images through the Cloudinary
// REST API using signed requests.
type CloudinaryRepository struct {
	config CloudinaryConfig
	client *http.Client
}

func NewCloudinaryRepository(cfg CloudinaryConfig) *CloudinaryRepository {
	return &CloudinaryRepository{
		config: cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *CloudinaryRepository) Upload(ctx context.Context, filename string, file io.Reader, subFolder string) (UploadResult, error) {
	folder := r.config.Folder
	if subFolder != "" {
		folder = folder + "/" + subFolder
	}

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	params := map[string]string{
		"folder":    folder,
		"timestamp": timestamp,
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return UploadResult{}, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return UploadResult{}, err
	}

	for k, v := range params {
		if err := writer.WriteField(k, v); err != nil {
			return UploadResult{}, err
		}
	}
	if err := writer.WriteField("api_key", r.config.APIKey); err != nil {
		return UploadResult{}, err
	}
	if err := writer.WriteField("signature", r.sign(params)); err != nil {
		return UploadResult{}, err
	}
	if err := writer.Close(); err != nil {
		return UploadResult{}, err
	}

	endpoint := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image/upload", r.config.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return UploadResult{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	res, err := r.client.Do(req)
	if err != nil {
		return UploadResult{}, err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return UploadResult{}, err
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return UploadResult{}, fmt.Errorf("cloudinary upload returned status %d", res.StatusCode)
	}

	var result UploadResult
	if err := json.Unmarshal(resBody, &result); err != nil {
		return UploadResult{}, fmt.Errorf("failed to decode cloudinary response: %w", err)
	}

	return result, nil
}

func (r *CloudinaryRepository) Destroy(ctx context.Context, publicID string) error {
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	params := map[string]string{
		"public_id": publicID,
		"timestamp": timestamp,
	}

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	form.Set("api_key", r.config.APIKey)
	form.Set("signature", r.sign(params))

	endpoint := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image/destroy", r.config.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("cloudinary destroy returned status %d", res.StatusCode)
	}

	return nil
}

// sign builds the Cloudinary request signature: params sorted by key, joined
// as a query string, with the API secret appended, SHA-1 hashed.
func (r *CloudinaryRepository) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + r.config.APISecret))
	return hex.EncodeToString(sum[:])
}
