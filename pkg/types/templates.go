package types

// QuickTemplate prefills the most common requests so a post is one tap away.
type QuickTemplate struct {
	Label    string `json:"label"`
	Item     string `json:"item"`
	Category string `json:"category"`
}

var QuickTemplates = []QuickTemplate{
	{Label: "Water", Item: "Drinking Water", Category: "Water"},
	{Label: "Food", Item: "Food/Meals", Category: "Food"},
	{Label: "Medicine", Item: "Medicine", Category: "Medical"},
	{Label: "Power", Item: "Power Bank / Charger", Category: "Power"},
	{Label: "Shelter", Item: "Temporary Shelter", Category: "Shelter"},
}
