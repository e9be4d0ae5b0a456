package mainconfig

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	appconfig "github.com/wolfman30/medconsult-ai/internal/config"
)

func TestLoadAWSConfigStaticCredentials(t *testing.T) {
	cfg := &appconfig.Config{
		AWSRegion:          "ap-northeast-2",
		AWSAccessKeyID:     " AKIDEXAMPLE ",
		AWSSecretAccessKey: "secret",
		AWSSessionToken:    "token",
	}
	awsCfg, err := LoadAWSConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("LoadAWSConfig: %v", err)
	}
	if awsCfg.Region != "ap-northeast-2" {
		t.Fatalf("region = %q", awsCfg.Region)
	}
	creds, err := awsCfg.Credentials.Retrieve(context.Background())
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if creds.AccessKeyID != "AKIDEXAMPLE" || creds.SessionToken != "token" {
		t.Fatalf("unexpected credentials %+v", creds)
	}
	if awsCfg.EndpointResolverWithOptions != nil {
		t.Fatal("no endpoint override configured, resolver should be unset")
	}
}

func TestOverrideResolver(t *testing.T) {
	resolver := overrideResolver("http://localhost:4566/", "ap-northeast-2")

	for _, service := range []string{dynamodb.ServiceID, bedrockruntime.ServiceID} {
		ep, err := resolver.ResolveEndpoint(service, "ap-northeast-2")
		if err != nil {
			t.Fatalf("%s: %v", service, err)
		}
		if ep.URL != "http://localhost:4566" || ep.SigningRegion != "ap-northeast-2" || !ep.HostnameImmutable {
			t.Fatalf("%s: unexpected endpoint %+v", service, ep)
		}
	}

	_, err := resolver.ResolveEndpoint("S3", "ap-northeast-2")
	var notFound *aws.EndpointNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected EndpointNotFoundError for unlisted service, got %v", err)
	}
}
