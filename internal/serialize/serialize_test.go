package serialize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wetwire "github.com/lex00/wetwire-eks-go"
	"github.com/lex00/wetwire-eks-go/intrinsics"
)

type testSubnet struct {
	VpcId     any               `json:"VpcId,omitempty"`
	CidrBlock string            `json:"CidrBlock,omitempty"`
	Public    bool              `json:"MapPublicIpOnLaunch,omitempty"`
	Tags      []testTag         `json:"Tags,omitempty"`
	Scaling   *testScaling      `json:"ScalingConfig,omitempty"`
	Labels    map[string]string `json:"Labels,omitempty"`
	Role      wetwire.AttrRef   `json:"Role,omitempty"`
	internal  string
}

type testTag struct {
	Key   string `json:"Key"`
	Value string `json:"Value"`
}

type testScaling struct {
	DesiredSize int `json:"DesiredSize"`
}

func TestProperties_OmitsZeroValues(t *testing.T) {
	props, err := Properties(testSubnet{CidrBlock: "10.0.0.0/24", internal: "x"})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"CidrBlock": "10.0.0.0/24"}, props)
}

func TestProperties_NestedAndCollections(t *testing.T) {
	props, err := Properties(&testSubnet{
		CidrBlock: "10.0.1.0/24",
		Public:    true,
		Tags:      []testTag{{Key: "Name", Value: "Public1"}},
		Scaling:   &testScaling{DesiredSize: 2},
		Labels:    map[string]string{"tier": "web"},
	})
	require.NoError(t, err)

	assert.Equal(t, true, props["MapPublicIpOnLaunch"])
	tags := props["Tags"].([]any)
	require.Len(t, tags, 1)
	assert.Equal(t, "Public1", tags[0].(map[string]any)["Value"])
	assert.Equal(t, int64(2), props["ScalingConfig"].(map[string]any)["DesiredSize"])
	assert.Equal(t, map[string]any{"tier": "web"}, props["Labels"])
}

func TestProperties_Intrinsics(t *testing.T) {
	props, err := Properties(testSubnet{
		VpcId: intrinsics.Ref{LogicalName: "Vpc"},
		Role:  wetwire.AttrRef{Resource: "NodeRole", Attribute: "Arn"},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"Ref": "Vpc"}, props["VpcId"])
	assert.Equal(t, map[string]any{"Fn::GetAtt": []any{"NodeRole", "Arn"}}, props["Role"])
}

func TestProperties_NonStruct(t *testing.T) {
	props, err := Properties("not a struct")
	require.NoError(t, err)
	assert.Nil(t, props)
}

func TestReferences(t *testing.T) {
	props := map[string]any{
		"VpcId":   map[string]any{"Ref": "Vpc"},
		"Region":  map[string]any{"Ref": "AWS::Region"},
		"RoleArn": map[string]any{"Fn::GetAtt": []any{"ClusterRole", "Arn"}},
		"Legacy":  map[string]any{"Fn::GetAtt": "NodeRole.Arn"},
		"Subnets": []any{
			map[string]any{"Ref": "PrivateSubnet1"},
			map[string]any{"Ref": "PrivateSubnet2"},
		},
		"Policy": map[string]any{"Fn::Sub": "arn:${AWS::Partition}:logs:${LogGroup.Arn}"},
		"Trust": map[string]any{"Fn::Sub": []any{
			"${Issuer}:sub ${OidcProvider}",
			map[string]any{
				"Issuer": map[string]any{"Fn::GetAtt": []any{"EksCluster", "OpenIdConnectIssuerUrl"}},
			},
		}},
	}

	assert.Equal(t, []string{
		"ClusterRole", "EksCluster", "LogGroup", "NodeRole",
		"OidcProvider", "PrivateSubnet1", "PrivateSubnet2", "Vpc",
	}, References(props))
}

func TestReferences_None(t *testing.T) {
	assert.Empty(t, References(map[string]any{"CidrBlock": "10.0.0.0/16"}))
	assert.Empty(t, References(nil))
}
