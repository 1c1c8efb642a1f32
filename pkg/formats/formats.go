// Package formats provides parsers for the model file formats the viewer
// imports: Wavefront OBJ with its MTL material libraries, and Ragnarok
// Online RSM models.
//
// Parsers decode files into plain structs that mirror the file layout.
// Turning those into render geometry is left to the importer.
package formats
