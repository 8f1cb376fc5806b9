package stack

import (
	"testing/fstest"
)

// testManifests returns a minimal manifest tree: two application files and
// the Fluent Bit files.
func testManifests() fstest.MapFS {
	return fstest.MapFS{
		"namespace.yaml": {Data: []byte(`apiVersion: v1
kind: Namespace
metadata:
  name: app-{{ENV}}
`)},
		"deployment.yaml": {Data: []byte(`apiVersion: v1
kind: ConfigMap
metadata:
  name: settings
  namespace: app-{{ENV}}
data:
  APP_VERSION: "{{APP_VERSION}}"
  LOG_GROUP_NAME: "{{LOG_GROUP_NAME}}"
---
apiVersion: apps/v1
kind: Deployment
metadata:
  name: app
  namespace: app-{{ENV}}
spec:
  replicas: {{REPLICA_COUNT}}
`)},
		"fluent-bit/namespace-cloudwatch.yaml": {Data: []byte(`apiVersion: v1
kind: Namespace
metadata:
  name: amazon-cloudwatch
`)},
		"fluent-bit/service-account.yaml": {Data: []byte(`apiVersion: v1
kind: ServiceAccount
metadata:
  name: fluent-bit
  namespace: amazon-cloudwatch
  annotations:
    eks.amazonaws.com/role-arn: <IRSA_ROLE_ARN_PLACEHOLDER>
`)},
		"fluent-bit/configmap.yaml": {Data: []byte(`apiVersion: v1
kind: ConfigMap
metadata:
  name: fluent-bit-config
  namespace: amazon-cloudwatch
data:
  output.conf: |
    [OUTPUT]
        region ${AWS_REGION}
`)},
		"fluent-bit/daemon-set.yaml": {Data: []byte(`apiVersion: apps/v1
kind: DaemonSet
metadata:
  name: fluent-bit
  namespace: amazon-cloudwatch
`)},
		"fluent-bit/values.yaml": {Data: []byte(`cloudWatchLogs:
  region: {{ .Region | quote }}
  logGroupName: {{ printf "%s/fluent-bit" .LogGroupPrefix | quote }}
serviceAccount:
  create: false
`)},
	}
}

// testFiles is the application file list matching testManifests.
var testFiles = []string{"namespace.yaml", "deployment.yaml"}
