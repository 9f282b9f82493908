package aws

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/stretchr/testify/assert"
)

func TestTagMap(t *testing.T) {
	m := TagMap([]types.Tag{
		{Key: aws.String("Name"), Value: aws.String("web1")},
		{Key: aws.String("Env"), Value: aws.String("prod")},
	})

	assert.Equal(t, map[string]string{"Name": "web1", "Env": "prod"}, m)
}

func TestTagMap_LastWins(t *testing.T) {
	m := TagMap([]types.Tag{
		{Key: aws.String("Env"), Value: aws.String("dev")},
		{Key: aws.String("Env"), Value: aws.String("prod")},
	})

	assert.Equal(t, "prod", m["Env"])
}

func TestTagMap_Empty(t *testing.T) {
	m := TagMap(nil)
	assert.NotNil(t, m)
	assert.Empty(t, m)
}

func TestFlatten(t *testing.T) {
	got := Flatten([]types.Reservation{
		{Instances: []types.Instance{newTestInstance("i-1")}},
		{},
		{Instances: []types.Instance{newTestInstance("i-2"), newTestInstance("i-3")}},
	})

	ids := make([]string, 0, len(got))
	for _, inst := range got {
		ids = append(ids, aws.ToString(inst.InstanceId))
	}
	assert.Equal(t, []string{"i-1", "i-2", "i-3"}, ids)
}

func TestNewRecord_Defaults(t *testing.T) {
	tests := []struct {
		name        string
		tags        []string
		wantHost    string
		wantEnv     string
		wantService string
	}{
		{"all tags", []string{"Name", "web1", "Env", "prod", "Service", "api"}, "web1", "prod", "api"},
		{"no name", []string{"Env", "prod", "Service", "api"}, "i-abc123", "prod", "api"},
		{"no env", []string{"Name", "web1", "Service", "api"}, "web1", "EC2", "api"},
		{"no service", []string{"Name", "web1", "Env", "prod"}, "web1", "prod", "unknown"},
		{"no tags", nil, "i-abc123", "EC2", "unknown"},
		{"lowercase keys ignored", []string{"name", "web1", "env", "prod"}, "i-abc123", "EC2", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRecord(newTestInstance("i-abc123", tt.tags...), "")
			assert.Equal(t, tt.wantHost, r.Host)
			assert.Equal(t, tt.wantEnv, r.Env)
			assert.Equal(t, tt.wantService, r.Service)
		})
	}
}

func TestNewRecord_Region(t *testing.T) {
	r := NewRecord(newTestInstance("i-1"), "us-west-2")
	assert.Equal(t, "us-west-2", r.Region)
}
