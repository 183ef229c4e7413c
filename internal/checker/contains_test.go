package checker_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hazz-dev/sitewatch/internal/checker"
)

func containsResponse(body string) *checker.Response {
	return &checker.Response{StatusCode: 200, Body: []byte(body)}
}

func TestContainsChecker(t *testing.T) {
	tests := []struct {
		name string
		body string
		cfg  checker.ContainsConfig
		want bool
	}{
		{"present", "tickets AVAILABLE now", checker.ContainsConfig{ContainedString: "AVAILABLE", ContainsOrNot: true}, true},
		{"absent", "sold out", checker.ContainsConfig{ContainedString: "AVAILABLE", ContainsOrNot: true}, false},
		{"case sensitive miss", "tickets available", checker.ContainsConfig{ContainedString: "AVAILABLE", ContainsOrNot: true}, false},
		{"ignore case hit", "tickets available", checker.ContainsConfig{ContainedString: "AVAILABLE", IgnoreCase: true, ContainsOrNot: true}, true},
		{"inverted absent", "in stock", checker.ContainsConfig{ContainedString: "sold out", ContainsOrNot: false}, true},
		{"inverted present", "sold out", checker.ContainsConfig{ContainedString: "sold out", ContainsOrNot: false}, false},
	}
	c := &checker.ContainsChecker{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Check(context.Background(), containsResponse(tt.body), checker.WithConfig(tt.cfg))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContainsChecker_PointerConfig(t *testing.T) {
	cfg := &checker.ContainsConfig{ContainedString: "x", ContainsOrNot: true}
	got, err := (&checker.ContainsChecker{}).Check(context.Background(), containsResponse("xyz"), checker.WithConfig(cfg))
	if err != nil || !got {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestContainsChecker_MissingConfig(t *testing.T) {
	_, err := (&checker.ContainsChecker{}).Check(context.Background(), containsResponse("x"), checker.NoConfig())
	var ce *checker.CheckError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CheckError, got %v", err)
	}
}

func TestContainsChecker_WrongConfigType(t *testing.T) {
	_, err := (&checker.ContainsChecker{}).Check(context.Background(), containsResponse("x"), checker.WithConfig("nope"))
	var ce *checker.CheckError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CheckError, got %v", err)
	}
}

func TestContainsChecker_ConfigCodec(t *testing.T) {
	c := &checker.ContainsChecker{}
	info := c.ConfigInfo()
	if info.FileName == "" {
		t.Fatal("expected a config file name")
	}

	data, err := c.EncodeConfig(info.Default)
	if err != nil {
		t.Fatalf("EncodeConfig: %v", err)
	}
	if !strings.Contains(string(data), "contained_string:") {
		t.Errorf("expected yaml keys in encoded config, got:\n%s", data)
	}

	v, err := c.DecodeConfig(data)
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if v.(checker.ContainsConfig) != info.Default.(checker.ContainsConfig) {
		t.Errorf("decoded %+v, want %+v", v, info.Default)
	}
}

func TestContainsChecker_DecodeRejectsUnknownFields(t *testing.T) {
	_, err := (&checker.ContainsChecker{}).DecodeConfig([]byte("contained_string: x\nbogus: true\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestContainsChecker_Commands(t *testing.T) {
	cmds := (&checker.ContainsChecker{}).Commands()
	if len(cmds) != 1 || cmds[0].Names[0] != "example" {
		t.Fatalf("unexpected commands %+v", cmds)
	}
	cmds[0].Run()
}
