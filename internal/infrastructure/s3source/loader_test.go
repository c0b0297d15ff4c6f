package s3source

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus/hooks/test"
)

// objectServer answers path-style GETs for a fixed set of objects.
type objectServer struct {
	objects  map[string]string
	requests []string
}

func (o *objectServer) Do(req *http.Request) (*http.Response, error) {
	o.requests = append(o.requests, req.Method+" "+req.URL.Path)
	body, ok := o.objects[req.URL.Path]
	if !ok {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Header:     http.Header{"Content-Type": []string{"application/xml"}},
			Body:       io.NopCloser(strings.NewReader(`<Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)),
			Request:    req,
		}, nil
	}
	return &http.Response{
		StatusCode:    http.StatusOK,
		Header:        http.Header{"Content-Type": []string{"application/octet-stream"}},
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}, nil
}

func newTestClient(srv *objectServer) *s3.Client {
	return s3.New(s3.Options{
		Region:       "us-east-1",
		Credentials:  credentials.NewStaticCredentialsProvider("key", "secret", ""),
		BaseEndpoint: aws.String("https://mock.s3.local"),
		UsePathStyle: true,
		HTTPClient:   srv,
	})
}

const packYAML = `
version: v3
labels:
  - {id: 1, name: VIP, kind: CUSTOMER}
triggers:
  - {id: 1, code: discount_vip}
rules:
  - id: 1
    name: VIP
    status: ENABLED
    trigger: discount_vip
    actions:
      - {type: DISCOUNT, params: {percentage: 5}}
`

func TestLoader_Load(t *testing.T) {
	srv := &objectServer{objects: map[string]string{"/rules/packs/v3_rules.yaml": packYAML}}
	log, _ := test.NewNullLogger()
	l := NewWithClient(newTestClient(srv), "rules", "packs/v3_rules.yaml", log)

	pack, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if pack.Version != "v3" || len(pack.Rules) != 1 || pack.Rules[0].Actions[0].Discount == nil {
		t.Errorf("pack = %+v", pack)
	}
	if len(srv.requests) != 1 || srv.requests[0] != "GET /rules/packs/v3_rules.yaml" {
		t.Errorf("requests = %v", srv.requests)
	}
}

func TestLoader_MissingObject(t *testing.T) {
	srv := &objectServer{objects: map[string]string{}}
	log, _ := test.NewNullLogger()
	l := NewWithClient(newTestClient(srv), "rules", "nope.yaml", log)
	if _, err := l.Load(context.Background()); err == nil || !strings.Contains(err.Error(), "s3://rules/nope.yaml") {
		t.Errorf("err = %v", err)
	}
}

func TestNewRequiresBucketAndKey(t *testing.T) {
	if _, err := New(context.Background(), Config{Bucket: "rules"}, nil); err == nil {
		t.Error("expected error without key")
	}
}
