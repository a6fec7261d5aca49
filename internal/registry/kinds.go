package registry

// defaultKinds is the built-in table. Extend by adding entries; order is the
// order `archdiagram kinds` prints them in.
var defaultKinds = []NodeKind{
	// Azure
	{TypeID: "Azure.WebApp", Label: "App Service", Category: CategoryWeb},
	{TypeID: "Azure.AppServicePlan", Label: "App Service Plan", Category: CategoryCompute},
	{TypeID: "Azure.FunctionApp", Label: "Function App", Category: CategoryCompute},
	{TypeID: "Azure.VirtualMachine", Label: "Virtual Machine", Category: CategoryCompute},
	{TypeID: "Azure.ContainerApp", Label: "Container App", Category: CategoryContainer},
	{TypeID: "Azure.KubernetesService", Label: "AKS", Category: CategoryContainer},
	{TypeID: "Azure.ContainerRegistry", Label: "Container Registry", Category: CategoryContainer},
	{TypeID: "Azure.SQLDatabase", Label: "SQL Database", Category: CategoryDatabase},
	{TypeID: "Azure.CosmosDB", Label: "Cosmos DB", Category: CategoryDatabase},
	{TypeID: "Azure.CacheForRedis", Label: "Cache for Redis", Category: CategoryDatabase},
	{TypeID: "Azure.BlobStorage", Label: "Blob Storage", Category: CategoryStorage},
	{TypeID: "Azure.StorageAccount", Label: "Storage Account", Category: CategoryStorage},
	{TypeID: "Azure.LoadBalancer", Label: "Load Balancer", Category: CategoryLoadBalancer},
	{TypeID: "Azure.ApplicationGateway", Label: "Application Gateway", Category: CategoryLoadBalancer},
	{TypeID: "Azure.VirtualNetwork", Label: "Virtual Network", Category: CategoryNetwork},
	{TypeID: "Azure.Subnet", Label: "Subnet", Category: CategoryNetwork},
	{TypeID: "Azure.Firewall", Label: "Firewall", Category: CategorySecurity},
	{TypeID: "Azure.NetworkSecurityGroup", Label: "Network Security Group", Category: CategorySecurity},
	{TypeID: "Azure.DNSZone", Label: "DNS Zone", Category: CategoryDNS},
	{TypeID: "Azure.TrafficManager", Label: "Traffic Manager", Category: CategoryDNS},
	{TypeID: "Azure.FrontDoor", Label: "Front Door", Category: CategoryCDN},
	{TypeID: "Azure.CDN", Label: "CDN Profile", Category: CategoryCDN},
	{TypeID: "Azure.ActiveDirectory", Label: "Active Directory", Category: CategoryIdentity},
	{TypeID: "Azure.KeyVault", Label: "Key Vault", Category: CategorySecret},
	{TypeID: "Azure.ServiceBus", Label: "Service Bus", Category: CategoryMessaging},
	{TypeID: "Azure.EventHubs", Label: "Event Hubs", Category: CategoryMessaging},
	{TypeID: "Azure.APIManagement", Label: "API Management", Category: CategoryWeb},
	{TypeID: "Azure.PowerBI", Label: "Power BI", Category: CategoryAnalytics},
	{TypeID: "Azure.SynapseAnalytics", Label: "Synapse Analytics", Category: CategoryAnalytics},
	{TypeID: "Azure.DataFactory", Label: "Data Factory", Category: CategoryAnalytics},
	{TypeID: "Azure.CognitiveServices", Label: "Cognitive Services", Category: CategoryAI},
	{TypeID: "Azure.OpenAI", Label: "Azure OpenAI", Category: CategoryAI},

	// AWS
	{TypeID: "AWS.EC2", Label: "EC2", Category: CategoryCompute},
	{TypeID: "AWS.Lambda", Label: "Lambda", Category: CategoryCompute},
	{TypeID: "AWS.ECS", Label: "ECS", Category: CategoryContainer},
	{TypeID: "AWS.EKS", Label: "EKS", Category: CategoryContainer},
	{TypeID: "AWS.RDS", Label: "RDS", Category: CategoryDatabase},
	{TypeID: "AWS.DynamoDB", Label: "DynamoDB", Category: CategoryDatabase},
	{TypeID: "AWS.S3", Label: "S3", Category: CategoryStorage},
	{TypeID: "AWS.ELB", Label: "Elastic Load Balancing", Category: CategoryLoadBalancer},
	{TypeID: "AWS.VPC", Label: "VPC", Category: CategoryNetwork},
	{TypeID: "AWS.SecurityGroup", Label: "Security Group", Category: CategorySecurity},
	{TypeID: "AWS.Route53", Label: "Route 53", Category: CategoryDNS},
	{TypeID: "AWS.CloudFront", Label: "CloudFront", Category: CategoryCDN},
	{TypeID: "AWS.SQS", Label: "SQS", Category: CategoryMessaging},
	{TypeID: "AWS.KMS", Label: "KMS", Category: CategorySecret},

	// GCP
	{TypeID: "GCP.ComputeEngine", Label: "Compute Engine", Category: CategoryCompute},
	{TypeID: "GCP.CloudRun", Label: "Cloud Run", Category: CategoryContainer},
	{TypeID: "GCP.CloudSQL", Label: "Cloud SQL", Category: CategoryDatabase},
	{TypeID: "GCP.CloudStorage", Label: "Cloud Storage", Category: CategoryStorage},
	{TypeID: "GCP.PubSub", Label: "Pub/Sub", Category: CategoryMessaging},
}

// Default returns a registry holding the built-in table
func Default() *Registry {
	return New(defaultKinds...)
}
