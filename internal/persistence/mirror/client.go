// Package mirror copies world artifacts (snapshots, archived milestones)
// to an S3-compatible bucket as they are written. Uploads run on a
// background worker; the enqueue path never blocks, so the snapshot
// writer stays decoupled from object-store latency.
package mirror

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"
)

const sigV4Algorithm = "AWS4-HMAC-SHA256"

// Config carries the bucket coordinates. Credentials usually arrive via
// environment, never flags.
type Config struct {
	Endpoint        string
	Bucket          string
	Region          string
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Endpoint) == "" || strings.TrimSpace(c.Bucket) == "" {
		return fmt.Errorf("mirror: endpoint and bucket are required")
	}
	if strings.TrimSpace(c.AccessKeyID) == "" || strings.TrimSpace(c.SecretAccessKey) == "" {
		return fmt.Errorf("mirror: access key id and secret are required")
	}
	return nil
}

// client issues SigV4-signed PUTs against one bucket.
type client struct {
	endpoint string
	bucket   string
	region   string
	key      string
	secret   string
	http     *http.Client
}

func newClient(cfg Config) (*client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("mirror: parse endpoint: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("mirror: invalid endpoint %q", cfg.Endpoint)
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "auto"
	}
	return &client{
		endpoint: strings.TrimRight(u.String(), "/"),
		bucket:   strings.TrimSpace(cfg.Bucket),
		region:   region,
		key:      strings.TrimSpace(cfg.AccessKeyID),
		secret:   strings.TrimSpace(cfg.SecretAccessKey),
		http:     &http.Client{Timeout: 2 * time.Minute},
	}, nil
}

func (c *client) putFile(ctx context.Context, objectKey, localPath string) error {
	objectKey = normalizeObjectKey(objectKey)
	if objectKey == "" {
		return fmt.Errorf("mirror: empty object key")
	}

	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return err
	}
	if st.IsDir() {
		return fmt.Errorf("mirror: %s is a directory", localPath)
	}

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return err
	}
	payloadHash := hex.EncodeToString(h.Sum(nil))
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}

	canonicalURI := "/" + c.bucket + "/" + escapePath(objectKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.endpoint+canonicalURI, f)
	if err != nil {
		return err
	}
	req.ContentLength = st.Size()
	req.Header.Set("Content-Type", "application/octet-stream")
	c.sign(req, canonicalURI, payloadHash, time.Now().UTC())

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 == 2 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8*1024))
	return fmt.Errorf("mirror: put %s: status=%d body=%s", objectKey, resp.StatusCode, strings.TrimSpace(string(body)))
}

// sign applies the AWS SigV4 header scheme with a sha256'd payload. Only
// host, x-amz-content-sha256 and x-amz-date are signed; that is the
// minimum R2 and S3 both accept for a simple PUT.
func (c *client) sign(req *http.Request, canonicalURI, payloadHash string, now time.Time) {
	amzDate := now.Format("20060102T150405Z")
	dateStamp := now.Format("20060102")
	host := req.URL.Host

	req.Header.Set("Host", host)
	req.Header.Set("x-amz-content-sha256", payloadHash)
	req.Header.Set("x-amz-date", amzDate)

	signedHeaders := "host;x-amz-content-sha256;x-amz-date"
	canonicalHeaders := "host:" + host + "\n" +
		"x-amz-content-sha256:" + payloadHash + "\n" +
		"x-amz-date:" + amzDate + "\n"

	canonicalRequest := strings.Join([]string{
		http.MethodPut,
		canonicalURI,
		"",
		canonicalHeaders,
		signedHeaders,
		payloadHash,
	}, "\n")

	scope := strings.Join([]string{dateStamp, c.region, "s3", "aws4_request"}, "/")
	stringToSign := strings.Join([]string{
		sigV4Algorithm,
		amzDate,
		scope,
		sha256Hex([]byte(canonicalRequest)),
	}, "\n")

	kDate := hmacSHA256([]byte("AWS4"+c.secret), []byte(dateStamp))
	kRegion := hmacSHA256(kDate, []byte(c.region))
	kService := hmacSHA256(kRegion, []byte("s3"))
	signingKey := hmacSHA256(kService, []byte("aws4_request"))
	signature := hex.EncodeToString(hmacSHA256(signingKey, []byte(stringToSign)))

	req.Header.Set("Authorization", fmt.Sprintf(
		"%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		sigV4Algorithm, c.key, scope, signedHeaders, signature,
	))
}

func normalizeObjectKey(key string) string {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return ""
	}
	clean := strings.TrimPrefix(path.Clean("/"+key), "/")
	if clean == "." || strings.HasPrefix(clean, "../") {
		return ""
	}
	return clean
}

func escapePath(p string) string {
	if p == "" {
		return ""
	}
	parts := strings.Split(p, "/")
	for i := range parts {
		parts[i] = url.PathEscape(parts[i])
	}
	return strings.Join(parts, "/")
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	_, _ = h.Write(data)
	return h.Sum(nil)
}
