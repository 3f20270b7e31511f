package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	c "github.com/d0ngw/countd/common"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

// RenderJSON 渲染JSON,状态码为200
func RenderJSON(w http.ResponseWriter, jsonData interface{}) {
	RenderJSONWithStatus(w, http.StatusOK, jsonData)
}

// RenderJSONWithStatus 使用指定的状态码渲染JSON
func RenderJSONWithStatus(w http.ResponseWriter, status int, jsonData interface{}) {
	data, err := json.Marshal(jsonData)
	if err != nil {
		c.Errorf("Marshal %T fail:%v", jsonData, err)
		RenderStatus(w, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// RenderStatus 只返回状态码,没有响应体
func RenderStatus(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Length", "0")
	w.WriteHeader(status)
}

// RenderText 渲染Text
func RenderText(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(text))
}

// StatusError 非200的响应
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Status:%d,msg:%s", e.StatusCode, e.Status)
}

// IsStatus err是否为状态码为code的StatusError
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == code
}

func doRequest(client *http.Client, req *http.Request) ([]byte, http.Header, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return body, resp.Header, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return body, resp.Header, nil
}

// GetURL 请求URL,返回去掉首尾空白的响应体
func GetURL(ctx context.Context, client *http.Client, rawURL string, params url.Values) (string, error) {
	if len(params) > 0 {
		rawURL = rawURL + "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	body, _, err := doRequest(client, req)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

// GetJSON 请求URL并将JSON响应解码到dest
func GetJSON(ctx context.Context, client *http.Client, rawURL string, dest interface{}) error {
	body, err := GetURL(ctx, client, rawURL, nil)
	if err != nil {
		return err
	}
	return json.UnmarshalFromString(body, dest)
}

// PostURL 请求URL,requestBody为nil时以表单提交params
func PostURL(ctx context.Context, client *http.Client, rawURL string, params url.Values, contentType string, requestBody io.Reader) ([]byte, http.Header, error) {
	if requestBody == nil {
		requestBody = strings.NewReader(params.Encode())
		if contentType == "" && len(params) > 0 {
			contentType = "application/x-www-form-urlencoded"
		}
	} else if len(params) > 0 {
		rawURL = rawURL + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, requestBody)
	if err != nil {
		return nil, nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return doRequest(client, req)
}
