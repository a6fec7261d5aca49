// Package parser reads Terraform configuration directories and state files
// and converts the resources they declare into an architecture IR, so an
// existing deployment can be drawn without a language model.
package parser

import "strings"

// Resource is a parsed Terraform resource
type Resource struct {
	Type       string                 // e.g. "azurerm_linux_web_app", "aws_instance"
	Name       string                 // resource name
	Provider   string                 // "azure", "aws", "gcp", "digitalocean"
	Attributes map[string]interface{} // resource attributes

	ID           string   // address, "type.name" or "type.name[i]"
	Dependencies []string // addresses this resource refers to
	Group        string   // resource group address or literal name, "" when none
}

const resourceGroupType = "azurerm_resource_group"

// terraformTypes maps provider resource types onto node kind identifiers
var terraformTypes = map[string]string{
	"azurerm_linux_web_app":           "Azure.WebApp",
	"azurerm_windows_web_app":         "Azure.WebApp",
	"azurerm_app_service":             "Azure.WebApp",
	"azurerm_static_web_app":          "Azure.WebApp",
	"azurerm_service_plan":            "Azure.AppServicePlan",
	"azurerm_app_service_plan":        "Azure.AppServicePlan",
	"azurerm_linux_function_app":      "Azure.FunctionApp",
	"azurerm_windows_function_app":    "Azure.FunctionApp",
	"azurerm_function_app":            "Azure.FunctionApp",
	"azurerm_virtual_machine":         "Azure.VirtualMachine",
	"azurerm_linux_virtual_machine":   "Azure.VirtualMachine",
	"azurerm_windows_virtual_machine": "Azure.VirtualMachine",
	"azurerm_container_app":           "Azure.ContainerApp",
	"azurerm_kubernetes_cluster":      "Azure.KubernetesService",
	"azurerm_container_registry":      "Azure.ContainerRegistry",
	"azurerm_mssql_server":            "Azure.SQLDatabase",
	"azurerm_mssql_database":          "Azure.SQLDatabase",
	"azurerm_sql_server":              "Azure.SQLDatabase",
	"azurerm_sql_database":            "Azure.SQLDatabase",
	"azurerm_cosmosdb_account":        "Azure.CosmosDB",
	"azurerm_redis_cache":             "Azure.CacheForRedis",
	"azurerm_storage_container":       "Azure.BlobStorage",
	"azurerm_storage_account":         "Azure.StorageAccount",
	"azurerm_lb":                      "Azure.LoadBalancer",
	"azurerm_application_gateway":     "Azure.ApplicationGateway",
	"azurerm_virtual_network":         "Azure.VirtualNetwork",
	"azurerm_subnet":                  "Azure.Subnet",
	"azurerm_firewall":                "Azure.Firewall",
	"azurerm_network_security_group":  "Azure.NetworkSecurityGroup",
	"azurerm_dns_zone":                "Azure.DNSZone",
	"azurerm_private_dns_zone":        "Azure.DNSZone",
	"azurerm_traffic_manager_profile": "Azure.TrafficManager",
	"azurerm_cdn_frontdoor_profile":   "Azure.FrontDoor",
	"azurerm_frontdoor":               "Azure.FrontDoor",
	"azurerm_cdn_profile":             "Azure.CDN",
	"azurerm_key_vault":               "Azure.KeyVault",
	"azurerm_servicebus_namespace":    "Azure.ServiceBus",
	"azurerm_eventhub_namespace":      "Azure.EventHubs",
	"azurerm_api_management":          "Azure.APIManagement",
	"azurerm_synapse_workspace":       "Azure.SynapseAnalytics",
	"azurerm_data_factory":            "Azure.DataFactory",
	"azurerm_cognitive_account":       "Azure.CognitiveServices",

	"aws_instance":                "AWS.EC2",
	"aws_lambda_function":         "AWS.Lambda",
	"aws_ecs_cluster":             "AWS.ECS",
	"aws_ecs_service":             "AWS.ECS",
	"aws_eks_cluster":             "AWS.EKS",
	"aws_db_instance":             "AWS.RDS",
	"aws_rds_cluster":             "AWS.RDS",
	"aws_dynamodb_table":          "AWS.DynamoDB",
	"aws_s3_bucket":               "AWS.S3",
	"aws_lb":                      "AWS.ELB",
	"aws_alb":                     "AWS.ELB",
	"aws_elb":                     "AWS.ELB",
	"aws_vpc":                     "AWS.VPC",
	"aws_security_group":          "AWS.SecurityGroup",
	"aws_route53_zone":            "AWS.Route53",
	"aws_cloudfront_distribution": "AWS.CloudFront",
	"aws_sqs_queue":               "AWS.SQS",
	"aws_kms_key":                 "AWS.KMS",

	"google_compute_instance":      "GCP.ComputeEngine",
	"google_cloud_run_service":     "GCP.CloudRun",
	"google_cloud_run_v2_service":  "GCP.CloudRun",
	"google_sql_database_instance": "GCP.CloudSQL",
	"google_storage_bucket":        "GCP.CloudStorage",
	"google_pubsub_topic":          "GCP.PubSub",
}

// TypeID returns the node kind identifier for a Terraform resource type.
// Unmapped types are returned unchanged and render as generic resources.
func TypeID(resourceType string) string {
	if id, ok := terraformTypes[resourceType]; ok {
		return id
	}
	return resourceType
}

// utilityTypes create no cloud infrastructure
var utilityTypes = map[string]bool{
	"tls_private_key":           true,
	"tls_cert_request":          true,
	"tls_locally_signed_cert":   true,
	"tls_self_signed_cert":      true,
	"local_file":                true,
	"local_sensitive_file":      true,
	"null_resource":             true,
	"random_id":                 true,
	"random_integer":            true,
	"random_password":           true,
	"random_pet":                true,
	"random_shuffle":            true,
	"random_string":             true,
	"random_uuid":               true,
	"time_sleep":                true,
	"time_static":               true,
	"time_rotating":             true,
	"time_offset":               true,
	"terraform_data":            true,
	"external":                  true,
	"http":                      true,
	"template_file":             true,
	"template_dir":              true,
	"template_cloudinit_config": true,
	"archive_file":              true,
}

// IsCloudInfraResource reports whether a resource type creates cloud
// infrastructure rather than local helpers (tls_private_key, random_id...)
func IsCloudInfraResource(resourceType string) bool {
	return !utilityTypes[resourceType]
}

// ShouldIncludeInDiagram drops utility resources, association resources
// (except load balancer ones) and fine grained rules that belong to a
// drawn parent
func ShouldIncludeInDiagram(r Resource) bool {
	if !IsCloudInfraResource(r.Type) {
		return false
	}

	t := strings.ToLower(r.Type)
	if strings.Contains(t, "_association") && !strings.Contains(t, "load_balancer") {
		return false
	}
	if strings.HasSuffix(t, "_security_rule") || strings.HasSuffix(t, "_security_group_rule") {
		return false
	}
	return true
}

// extractProvider determines the cloud provider from the resource type
func extractProvider(resourceType string) string {
	switch {
	case strings.HasPrefix(resourceType, "azurerm_"):
		return "azure"
	case strings.HasPrefix(resourceType, "aws_"):
		return "aws"
	case strings.HasPrefix(resourceType, "google_"):
		return "gcp"
	case strings.HasPrefix(resourceType, "digitalocean_"):
		return "digitalocean"
	}
	return "unknown"
}
