package media

import "testing"

func TestNewCloudinaryKeepsFolder(t *testing.T) {
	c, err := NewCloudinary("demo", "key", "secret", "creatorhub/profiles")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if c.folder != "creatorhub/profiles" {
		t.Fatalf("expected folder to be kept, got %q", c.folder)
	}
	var _ Uploader = c
}
