package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wetwire "github.com/lex00/wetwire-eks-go"
)

func TestListResult_KeepsOrderAndMergesEdges(t *testing.T) {
	result := listResult([]wetwire.ResolvedResource{
		{Name: "Vpc", Type: "AWS::EC2::VPC"},
		{Name: "PublicDefaultRoute", Type: "AWS::EC2::Route", DependsOn: []string{"VpcGatewayAttachment"}, References: []string{"PublicRouteTable", "VpcGatewayAttachment"}},
	})

	require.Len(t, result.Resources, 2)
	assert.Equal(t, "Vpc", result.Resources[0].Name)
	assert.Nil(t, result.Resources[0].DependsOn)
	assert.Equal(t, []string{"PublicRouteTable", "VpcGatewayAttachment"}, result.Resources[1].DependsOn)
}

func TestOutputListResult(t *testing.T) {
	result := wetwire.ListResult{Resources: []wetwire.ListResource{
		{Name: "EksCluster", Type: "AWS::EKS::Cluster"},
		{Name: "NodeGroup", Type: "AWS::EKS::Nodegroup", DependsOn: []string{"EksCluster", "NodeRole"}},
	}}

	var text bytes.Buffer
	require.NoError(t, outputListResult(&text, result, "text"))
	if !strings.Contains(text.String(), "Resources in apply order (2):") {
		t.Errorf("missing header in %q", text.String())
	}
	if !strings.Contains(text.String(), "after: EksCluster, NodeRole") {
		t.Errorf("missing dependency line in %q", text.String())
	}

	var js bytes.Buffer
	require.NoError(t, outputListResult(&js, result, "json"))
	var decoded wetwire.ListResult
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Equal(t, result, decoded)

	assert.Error(t, outputListResult(&js, result, "csv"))
}

func TestListCmd_SampleStack(t *testing.T) {
	out, err := execute(t, sampleArgs("list", "--format", "json")...)
	require.NoError(t, err)

	var result wetwire.ListResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))

	pos := make(map[string]int, len(result.Resources))
	for i, res := range result.Resources {
		pos[res.Name] = i
	}
	assert.Less(t, pos["EksCluster"], pos["NodeGroup"])
	assert.Less(t, pos["NodeGroup"], pos["AwsAuthManifest"])
	assert.Less(t, pos["NamespaceManifestStaging"], pos["AppManifestsStaging"])
}

func TestGraphCmd(t *testing.T) {
	out, err := execute(t, sampleArgs("graph", "--cluster")...)
	require.NoError(t, err)
	if !strings.Contains(out, "digraph") {
		t.Errorf("graph output should be DOT, got:\n%s", out)
	}
	assert.Contains(t, out, "AppManifestsDev")

	out, err = execute(t, sampleArgs("graph", "-f", "mermaid")...)
	require.NoError(t, err)
	assert.NotContains(t, out, "digraph")
	assert.Contains(t, out, "NodeGroup")

	_, err = execute(t, sampleArgs("graph", "-f", "svg")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format: svg")
}
