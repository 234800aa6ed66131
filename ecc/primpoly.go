package ecc

// primitivePolys lists primitive polynomials over GF(2) for orders 3..32 as
// the exponents of their nonzero terms. Entry [m-3] holds the choices for
// order m; the permutation index selects one modulo the list length.
var primitivePolys = [][][]int{
	{{3, 1, 0}},
	{{4, 1, 0}},
	{{5, 2, 0}, {5, 4, 2, 1, 0}, {5, 4, 3, 2, 0}},
	{{6, 1, 0}, {6, 5, 2, 1, 0}, {6, 5, 3, 2, 0}},
	{{7, 1, 0}, {7, 3, 0}, {7, 3, 2, 1, 0}, {7, 4, 3, 2, 0}, {7, 5, 4, 3, 2, 1, 0}, {7, 6, 3, 1, 0}, {7, 6, 4, 2, 0}, {7, 6, 5, 2, 0}, {7, 6, 5, 4, 2, 1, 0}},
	{{8, 4, 3, 2, 0}, {8, 5, 3, 1, 0}, {8, 6, 4, 3, 2, 1, 0}, {8, 6, 5, 1, 0}, {8, 6, 5, 2, 0}, {8, 6, 5, 3, 0}, {8, 7, 6, 1, 0}, {8, 7, 6, 5, 2, 1, 0}},
	{{9, 4, 0}, {9, 5, 3, 2, 0}, {9, 6, 4, 3, 0}, {9, 6, 5, 3, 2, 1, 0}, {9, 6, 5, 4, 2, 1, 0}, {9, 7, 6, 4, 3, 1, 0}, {9, 8, 4, 1, 0}, {9, 8, 5, 4, 0}, {9, 8, 6, 5, 0}, {9, 8, 6, 5, 3, 1, 0}, {9, 8, 7, 2, 0}, {9, 8, 7, 3, 2, 1, 0}, {9, 8, 7, 6, 5, 1, 0}, {9, 8, 7, 6, 5, 3, 0}},
	{{10, 3, 0}, {10, 4, 3, 1, 0}, {10, 6, 5, 3, 2, 1, 0}, {10, 8, 3, 2, 0}, {10, 8, 4, 3, 0}, {10, 8, 5, 1, 0}, {10, 8, 5, 4, 0}, {10, 8, 7, 6, 5, 2, 0}, {10, 8, 7, 6, 5, 4, 3, 1, 0}, {10, 9, 4, 1, 0}, {10, 9, 6, 5, 4, 3, 2, 1, 0}, {10, 9, 8, 6, 3, 2, 0}, {10, 9, 8, 6, 5, 1, 0}, {10, 9, 8, 7, 6, 5, 4, 3, 0}},
	{{11, 2, 0}, {11, 5, 3, 1, 0}, {11, 5, 3, 2, 0}, {11, 6, 5, 1, 0}, {11, 7, 3, 2, 0}, {11, 8, 5, 2, 0}, {11, 8, 6, 5, 4, 1, 0}, {11, 8, 6, 5, 4, 3, 2, 1, 0}, {11, 9, 4, 1, 0}, {11, 9, 8, 7, 4, 1, 0}, {11, 10, 3, 2, 0}, {11, 10, 7, 4, 3, 1, 0}, {11, 10, 8, 7, 5, 4, 3, 1, 0}, {11, 10, 9, 8, 3, 1, 0}},
	{{12, 6, 4, 1, 0}, {12, 9, 3, 2, 0}, {12, 9, 8, 3, 2, 1, 0}, {12, 10, 9, 8, 6, 2, 0}, {12, 10, 9, 8, 6, 5, 4, 2, 0}, {12, 11, 6, 4, 2, 1, 0}, {12, 11, 9, 5, 3, 1, 0}, {12, 11, 9, 7, 6, 4, 0}, {12, 11, 9, 7, 6, 5, 0}, {12, 11, 9, 8, 7, 4, 0}, {12, 11, 9, 8, 7, 5, 2, 1, 0}, {12, 11, 10, 5, 2, 1, 0}, {12, 11, 10, 8, 6, 4, 3, 1, 0}, {12, 11, 10, 9, 8, 7, 5, 4, 3, 1, 0}},
	{{13, 4, 3, 1, 0}, {13, 9, 7, 5, 4, 3, 2, 1, 0}, {13, 9, 8, 7, 5, 1, 0}, {13, 10, 9, 7, 5, 4, 0}, {13, 10, 9, 8, 6, 3, 2, 1, 0}, {13, 11, 8, 7, 4, 1, 0}, {13, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0}, {13, 12, 6, 5, 4, 3, 0}, {13, 12, 8, 7, 6, 5, 0}, {13, 12, 9, 8, 4, 2, 0}, {13, 12, 10, 8, 6, 4, 3, 2, 0}, {13, 12, 11, 5, 2, 1, 0}, {13, 12, 11, 8, 7, 6, 4, 1, 0}, {13, 12, 11, 9, 5, 3, 0}},
	{{14, 8, 6, 1, 0}, {14, 10, 6, 1, 0}, {14, 10, 9, 7, 6, 4, 3, 1, 0}, {14, 11, 6, 1, 0}, {14, 11, 9, 6, 5, 2, 0}, {14, 12, 9, 8, 7, 6, 5, 4, 0}, {14, 12, 11, 9, 8, 7, 6, 5, 3, 1, 0}, {14, 12, 11, 10, 9, 7, 4, 3, 0}, {14, 13, 6, 5, 3, 1, 0}, {14, 13, 10, 8, 7, 5, 4, 3, 2, 1, 0}, {14, 13, 11, 6, 5, 4, 2, 1, 0}, {14, 13, 11, 8, 5, 3, 2, 1, 0}, {14, 13, 12, 11, 10, 7, 6, 1, 0}, {14, 13, 12, 11, 10, 9, 6, 5, 0}},
	{{15, 1, 0}, {15, 4, 0}, {15, 7, 0}, {15, 7, 6, 3, 2, 1, 0}, {15, 10, 5, 1, 0}, {15, 10, 5, 4, 0}, {15, 10, 5, 4, 2, 1, 0}, {15, 10, 9, 7, 5, 3, 0}, {15, 10, 9, 8, 5, 3, 0}, {15, 11, 7, 6, 2, 1, 0}, {15, 12, 3, 1, 0}, {15, 12, 5, 4, 3, 2, 0}, {15, 12, 11, 8, 7, 6, 4, 2, 0}, {15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 0}},
	{{16, 9, 8, 7, 6, 4, 3, 2, 0}, {16, 12, 3, 1, 0}, {16, 12, 7, 2, 0}, {16, 13, 12, 10, 9, 7, 6, 1, 0}, {16, 13, 12, 11, 7, 6, 3, 1, 0}, {16, 13, 12, 11, 10, 6, 2, 1, 0}, {16, 14, 10, 8, 3, 1, 0}, {16, 14, 13, 12, 6, 5, 3, 2, 0}, {16, 14, 13, 12, 10, 7, 0}, {16, 15, 10, 6, 5, 3, 2, 1, 0}, {16, 15, 11, 9, 8, 7, 5, 4, 2, 1, 0}, {16, 15, 11, 10, 7, 6, 5, 3, 2, 1, 0}, {16, 15, 11, 10, 9, 6, 2, 1, 0}, {16, 15, 11, 10, 9, 8, 6, 4, 2, 1, 0}},
	{{17, 3, 0}, {17, 3, 2, 1, 0}, {17, 5, 0}, {17, 6, 0}, {17, 8, 4, 3, 0}, {17, 8, 7, 6, 4, 3, 0}, {17, 10, 9, 8, 6, 5, 3, 2, 0}, {17, 12, 6, 3, 2, 1, 0}, {17, 12, 9, 5, 4, 3, 2, 1, 0}, {17, 12, 9, 7, 6, 4, 3, 2, 0}, {17, 14, 11, 7, 5, 3, 2, 1, 0}, {17, 15, 13, 11, 9, 7, 5, 3, 0}, {17, 15, 13, 11, 9, 7, 6, 4, 2, 1, 0}, {17, 16, 3, 1, 0}},
	{{18, 5, 4, 3, 2, 1, 0}, {18, 7, 0}, {18, 7, 5, 2, 1, 0}, {18, 8, 2, 1, 0}, {18, 9, 7, 6, 5, 4, 0}, {18, 9, 8, 6, 5, 4, 2, 1, 0}, {18, 9, 8, 7, 6, 4, 2, 1, 0}, {18, 10, 7, 5, 0}, {18, 10, 8, 5, 0}, {18, 10, 8, 7, 6, 5, 4, 3, 2, 1, 0}, {18, 10, 9, 3, 0}, {18, 13, 6, 4, 0}, {18, 15, 5, 2, 0}, {18, 15, 9, 2, 0}},
	{{19, 5, 2, 1, 0}, {19, 5, 4, 3, 2, 1, 0}, {19, 6, 2, 1, 0}, {19, 6, 5, 3, 2, 1, 0}, {19, 6, 5, 4, 3, 2, 0}, {19, 7, 5, 3, 2, 1, 0}, {19, 8, 7, 5, 0}, {19, 8, 7, 5, 4, 3, 2, 1, 0}, {19, 8, 7, 6, 4, 3, 2, 1, 0}, {19, 9, 8, 5, 0}, {19, 9, 8, 6, 5, 3, 2, 1, 0}, {19, 9, 8, 7, 4, 3, 2, 1, 0}, {19, 11, 9, 8, 7, 6, 5, 4, 3, 2, 0}, {19, 11, 10, 8, 7, 5, 4, 3, 2, 1, 0}, {19, 16, 13, 10, 7, 4, 1, 0}},
	{{20, 3, 0}, {20, 9, 5, 3, 0}, {20, 11, 8, 6, 3, 2, 0}, {20, 14, 10, 9, 8, 6, 5, 4, 0}, {20, 17, 14, 10, 7, 4, 3, 2, 0}, {20, 19, 4, 3, 0}},
	{{21, 2, 0}, {21, 8, 7, 4, 3, 2, 0}, {21, 10, 6, 4, 3, 2, 0}, {21, 13, 5, 2, 0}, {21, 14, 7, 2, 0}, {21, 14, 7, 6, 3, 2, 0}, {21, 14, 12, 7, 6, 4, 3, 2, 0}, {21, 15, 10, 9, 5, 4, 3, 2, 0}, {21, 20, 19, 18, 5, 4, 3, 2, 0}},
	{{22, 1, 0}, {22, 9, 5, 1, 0}, {22, 14, 13, 12, 7, 3, 2, 1, 0}, {22, 17, 9, 7, 2, 1, 0}, {22, 17, 13, 12, 8, 7, 2, 1, 0}, {22, 20, 18, 16, 6, 4, 2, 1, 0}},
	{{23, 5, 0}, {23, 5, 4, 1, 0}, {23, 11, 10, 7, 6, 5, 0}, {23, 12, 5, 4, 0}, {23, 15, 10, 9, 7, 5, 4, 3, 0}, {23, 16, 13, 6, 5, 3, 0}, {23, 17, 11, 5, 0}, {23, 17, 11, 9, 8, 5, 4, 1, 0}, {23, 18, 16, 13, 11, 8, 5, 2, 0}, {23, 21, 7, 5, 0}},
	{{24, 7, 2, 1, 0}, {24, 21, 19, 18, 17, 16, 15, 14, 13, 10, 9, 5, 4, 1, 0}, {24, 22, 20, 18, 16, 14, 11, 9, 8, 7, 5, 4, 0}},
	{{25, 3, 0}, {25, 3, 2, 1, 0}, {25, 11, 9, 8, 6, 4, 3, 2, 0}, {25, 12, 4, 3, 0}, {25, 12, 11, 8, 7, 6, 4, 3, 0}, {25, 17, 10, 3, 2, 1, 0}, {25, 18, 12, 11, 6, 5, 4, 3, 0}, {25, 20, 5, 3, 0}, {25, 20, 16, 11, 5, 3, 2, 1, 0}, {25, 23, 21, 19, 9, 7, 5, 3, 0}},
	{{26, 6, 2, 1, 0}, {26, 19, 16, 15, 14, 13, 11, 9, 8, 7, 6, 5, 3, 2, 0}, {26, 21, 18, 16, 15, 13, 12, 11, 9, 8, 6, 5, 4, 3, 0}, {26, 22, 20, 19, 16, 13, 11, 9, 8, 7, 5, 4, 2, 1, 0}, {26, 22, 21, 16, 12, 11, 10, 8, 5, 4, 3, 1, 0}, {26, 23, 22, 21, 19, 18, 15, 14, 13, 11, 10, 9, 8, 6, 5, 2, 0}, {26, 24, 21, 17, 16, 14, 13, 11, 7, 6, 4, 1, 0}},
	{{27, 5, 2, 1, 0}, {27, 18, 11, 10, 9, 5, 4, 3, 0}, {27, 22, 13, 11, 6, 5, 4, 3, 0}, {27, 22, 17, 15, 14, 13, 6, 1, 0}, {27, 22, 21, 20, 18, 17, 15, 13, 12, 7, 5, 0}, {27, 24, 19, 16, 12, 8, 7, 3, 2, 1, 0}, {27, 24, 21, 19, 16, 13, 11, 9, 6, 5, 4, 3, 0}, {27, 25, 23, 21, 13, 11, 9, 8, 7, 6, 5, 3, 2, 1, 0}, {27, 25, 23, 21, 20, 19, 18, 16, 14, 10, 8, 7, 4, 3, 0}},
	{{28, 3, 0}, {28, 13, 11, 9, 5, 3, 0}, {28, 18, 17, 16, 9, 5, 4, 3, 0}, {28, 19, 17, 15, 10, 6, 3, 2, 0}, {28, 22, 11, 10, 4, 3, 0}, {28, 24, 20, 16, 12, 8, 4, 3, 0}},
	{{29, 2, 0}, {29, 12, 7, 2, 0}, {29, 18, 14, 6, 3, 2, 0}, {29, 19, 16, 6, 3, 2, 0}, {29, 20, 11, 2, 0}, {29, 20, 16, 11, 8, 4, 3, 2, 0}, {29, 21, 5, 2, 0}, {29, 23, 10, 9, 5, 4, 3, 2, 0}, {29, 24, 14, 13, 8, 4, 3, 2, 0}, {29, 26, 5, 2, 0}},
	{{30, 23, 2, 1, 0}, {30, 24, 20, 16, 14, 13, 11, 7, 2, 1, 0}, {30, 24, 21, 20, 18, 15, 13, 12, 9, 7, 6, 4, 3, 1, 0}, {30, 25, 24, 23, 19, 18, 16, 14, 11, 8, 6, 4, 3, 1, 0}, {30, 27, 25, 24, 23, 22, 19, 16, 12, 10, 8, 7, 6, 1, 0}},
	{{31, 3, 0}, {31, 3, 2, 1, 0}, {31, 13, 8, 3, 0}, {31, 16, 8, 4, 3, 2, 0}, {31, 20, 15, 5, 4, 3, 0}, {31, 20, 18, 7, 5, 3, 0}, {31, 21, 12, 3, 2, 1, 0}, {31, 23, 22, 15, 14, 7, 4, 3, 0}, {31, 25, 19, 14, 7, 3, 2, 1, 0}, {31, 27, 23, 19, 15, 11, 7, 3, 0}, {31, 27, 23, 19, 15, 11, 10, 9, 7, 6, 5, 3, 2, 1, 0}},
	{{32, 22, 2, 1, 0}, {32, 22, 21, 20, 18, 17, 15, 13, 12, 10, 8, 6, 4, 1, 0}, {32, 23, 17, 16, 14, 10, 8, 7, 6, 5, 3, 0}, {32, 26, 23, 22, 16, 12, 11, 10, 8, 7, 5, 4, 2, 1, 0}, {32, 27, 26, 25, 24, 23, 22, 17, 13, 11, 10, 9, 8, 7, 2, 1, 0}, {32, 28, 19, 18, 16, 14, 11, 10, 9, 6, 5, 1, 0}},
}

// NumPrimitivePolys returns how many distinct primitive polynomials of order
// m are available for selection.
func NumPrimitivePolys(m int) int {
	if m < MinFieldOrder || m > MaxFieldOrder {
		return 0
	}
	return len(primitivePolys[m-MinFieldOrder])
}
