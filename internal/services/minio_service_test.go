package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMinioService_ObjectURL(t *testing.T) {
	svc, err := NewMinioService("localhost:9000", "key", "secret", false, "org-logos", "https://cdn.example.com/")
	require.NoError(t, err)

	url := svc.(*minioClient).ObjectURL("org/logo-1.png")
	assert.Equal(t, "https://cdn.example.com/org-logos/org/logo-1.png", url)
}

func TestNewMinioService_DefaultsToEndpoint(t *testing.T) {
	svc, err := NewMinioService("localhost:9000", "key", "secret", false, "org-logos", "")
	require.NoError(t, err)

	url := svc.(*minioClient).ObjectURL("a.png")
	assert.Equal(t, "http://localhost:9000/org-logos/a.png", url)
}

func TestPublicReadPolicy(t *testing.T) {
	var policy struct {
		Statement []struct {
			Effect   string
			Action   []string
			Resource []string
		}
	}
	require.NoError(t, json.Unmarshal([]byte(publicReadPolicy("org-logos")), &policy))
	require.Len(t, policy.Statement, 1)
	assert.Equal(t, "Allow", policy.Statement[0].Effect)
	assert.Equal(t, []string{"s3:GetObject"}, policy.Statement[0].Action)
	assert.Equal(t, []string{"arn:aws:s3:::org-logos/*"}, policy.Statement[0].Resource)
}
