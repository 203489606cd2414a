// Package flyerdex embeds the flyerdex retrieval pipeline in a Go program.
//
// The client loads catalog artifacts once, classifies each query into a
// shopping intent, pre-filters the offers by category and narrows them to the
// relevant ones. Without a provider key relevance falls back to lexical
// heuristics, so the client works fully offline.
//
//	client, _ := flyerdex.New(ctx,
//	    flyerdex.WithArtifacts(flyerdex.Artifacts{
//	        Items:          "data/items.json",
//	        IntentRegistry: "data/intents.yaml",
//	    }),
//	    flyerdex.WithOpenAI(os.Getenv("OPENAI_API_KEY"), "gpt-4o-mini", ""),
//	)
//	defer client.Close()
//
//	page, _ := client.Search(ctx, flyerdex.Query{Text: "butter", Markets: []string{"Aldi"}})
//	for _, o := range page.Offers {
//	    fmt.Println(o.Name, o.Price)
//	}
//
// # Recipes
//
// SearchRecipe runs one search per ingredient with shared filters:
//
//	pages, _ := client.SearchRecipe(ctx, []string{"nudeln", "tomaten", "zwiebeln"}, flyerdex.Query{})
package flyerdex
