// Package glossameta embeds the glossameta metadata filter in a Go program.
//
// A Client owns an in-memory set index built from a tab-separated metadata
// table and keeps filter sessions in memory, Redis or Valkey.
//
//	client, _ := glossameta.New(ctx, glossameta.Schema{
//	    IDColumn:         "tid",
//	    LocationCategory: "place",
//	    Categories: []glossameta.Category{
//	        {Key: "sex", DisplayName: "Sex"},
//	        {Key: "age", DisplayName: "Age", Kind: glossameta.KindInterval},
//	        {Key: "place", DisplayName: "Place", Kind: glossameta.KindGeo},
//	    },
//	})
//	_ = client.LoadFiles(ctx, "metadata.tsv", "coordinates.tsv")
//
//	s, _ := client.Sessions().Create(ctx)
//	res, _ := client.Sessions().SetRange(ctx, s.SessionID, "age", 20, 40)
//	fmt.Println(res.RecordIDs)
//
// Selections passed to Evaluate follow the same rules as sessions: values
// within a category are unioned, categories are intersected, and a category
// present with no values matches nothing.
package glossameta
