package emitter

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yairfalse/ec2inv/internal/inventory"
	"github.com/yairfalse/ec2inv/pkg/host"
)

const singleINI = `### Generated Ansible Inventory from AWS ###
## Env: {"prod":2}
## Services: {"api":2}

## prod Services ##
[prod-api]
web1
web2

## Environments ##
[prod:children]
prod-api

## Services ##
[api:children]
prod-api

`

const multiINI = `### Generated Ansible Inventory from AWS ###
## Env: {"prod":1}
## Services: {"db":1}
## Regions: {"us-west-2":1}
## Missing regions: us-east-1, us-east-2

## prod Services ##
[prod-db-us-west-2]
db1

## Environment Regions ##
[prod-us-west-2:children]
prod-db-us-west-2

## Environment Services ##
[prod-db:children]
prod-db-us-west-2

## Environments ##
[prod:children]
prod-db-us-west-2

## Service Regions ##
[db-us-west-2:children]
prod-db-us-west-2

## Services ##
[db:children]
prod-db-us-west-2

## Regions ##
[us-west-2:children]
prod-db-us-west-2

`

func renderINI(t *testing.T, doc *inventory.Document) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, NewINIEmitter(&buf).Emit(context.Background(), doc))
	return buf.String()
}

func TestINIEmitter_Single(t *testing.T) {
	assert.Equal(t, singleINI, renderINI(t, singleDoc()))
}

func TestINIEmitter_MultiWithMissing(t *testing.T) {
	doc := multiDoc()
	doc.Missing = []string{"us-east-1", "us-east-2"}

	assert.Equal(t, multiINI, renderINI(t, doc))
}

func TestINIEmitter_Deterministic(t *testing.T) {
	records := []host.Record{
		{Host: "c", Env: "qa", Service: "web"},
		{Host: "a", Env: "prod", Service: "api"},
		{Host: "b", Env: "dev", Service: "api"},
		{Host: "d", Env: "prod", Service: "web"},
	}

	first := renderINI(t, inventory.Build(records, inventory.Single))
	for range 5 {
		assert.Equal(t, first, renderINI(t, inventory.Build(records, inventory.Single)))
	}
}

func TestINIEmitter_CountKeysSorted(t *testing.T) {
	doc := inventory.Build([]host.Record{
		{Host: "a", Env: "qa", Service: "x"},
		{Host: "b", Env: "dev", Service: "x"},
		{Host: "c", Env: "Prod", Service: "x"},
		{Host: "d", Env: "dev", Service: "x"},
	}, inventory.Single)

	out := renderINI(t, doc)

	assert.Contains(t, out, "## Env: {\"Prod\":1,\"dev\":2,\"qa\":1}\n")
}

func TestINIEmitter_NoHTMLEscape(t *testing.T) {
	doc := inventory.Build([]host.Record{
		{Host: "a", Env: "r&d", Service: "x"},
	}, inventory.Single)

	assert.Contains(t, renderINI(t, doc), `## Env: {"r&d":1}`)
}

func TestINIEmitter_Empty(t *testing.T) {
	out := renderINI(t, inventory.Build(nil, inventory.Single))

	assert.Equal(t, "### Generated Ansible Inventory from AWS ###\n"+
		"## Env: {}\n"+
		"## Services: {}\n"+
		"\n"+
		"## Environments ##\n"+
		"## Services ##\n", out)
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestINIEmitter_WriteError(t *testing.T) {
	err := NewINIEmitter(failWriter{}).Emit(context.Background(), singleDoc())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "write inventory")
}
