package querybuilder

type InsertRows [][]interface{} // multiple Rows
