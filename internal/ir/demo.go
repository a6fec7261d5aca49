package ir

// Demo returns the fixed IR used when no language-model credentials are
// configured: two resources, one relationship, one cluster.
func Demo() *ArchitectureIR {
	return &ArchitectureIR{
		Label: "Sample Web App Architecture",
		Resources: []Resource{
			{
				Name: "Web App",
				Type: "Azure.WebApp",
				Attributes: Attributes{
					"location": "East US",
					"sku":      "S1",
				},
			},
			{
				Name: "SQL Database",
				Type: "Azure.SQLDatabase",
				Attributes: Attributes{
					"location": "East US",
					"sku":      "S2",
				},
			},
		},
		Relationships: []Relationship{
			{Source: "Web App", Target: "SQL Database", Kind: "connects_to"},
		},
		Clusters: []Cluster{
			{Name: "Resource Group 1", Members: []string{"Web App", "SQL Database"}},
		},
	}
}
